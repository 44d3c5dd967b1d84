package commons

// Response is the generic API envelope returned by every endpoint.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errs ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errs,
	}
}
