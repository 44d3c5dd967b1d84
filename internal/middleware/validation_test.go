package middleware

import (
	"testing"
)

type transferShape struct {
	FromAccountNumber string `validate:"required,account_number"`
	ToAccountNumber   string `validate:"required,account_number"`
	Amount            string `validate:"required"`
}

type movementShape struct {
	Amount      string `validate:"required"`
	Description string `validate:"max=200"`
}

func TestValidateRequestAcceptsValidTransfer(t *testing.T) {
	errs := ValidateRequest(transferShape{
		FromAccountNumber: "01000001",
		ToAccountNumber:   "01000002",
		Amount:            "25.00",
	})
	if errs != nil {
		t.Errorf("expected no validation errors, got %v", errs)
	}
}

func TestValidateRequestRejectsMalformedAccountNumber(t *testing.T) {
	cases := []string{"9123", "0100000", "010000001", "91000001"}
	for _, number := range cases {
		errs := ValidateRequest(transferShape{
			FromAccountNumber: number,
			ToAccountNumber:   "01000002",
			Amount:            "25.00",
		})
		if len(errs) != 1 {
			t.Fatalf("expected one validation error for %q, got %v", number, errs)
		}
		if errs[0].Type != "account_number" || errs[0].Field != "FromAccountNumber" {
			t.Errorf("unexpected error for %q: %+v", number, errs[0])
		}
		if errs[0].Message != "Must be an 8-digit account number starting with 01" {
			t.Errorf("unexpected message for %q: %s", number, errs[0].Message)
		}
	}
}

func TestValidateRequestReportsMissingFields(t *testing.T) {
	errs := ValidateRequest(transferShape{})
	if len(errs) != 3 {
		t.Fatalf("expected three validation errors, got %v", errs)
	}
	for _, e := range errs {
		if e.Type != "required" || e.Message != "This field is required" {
			t.Errorf("unexpected error: %+v", e)
		}
	}
}

func TestValidateRequestEnforcesDescriptionLength(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	errs := ValidateRequest(movementShape{Amount: "10.00", Description: string(long)})
	if len(errs) != 1 || errs[0].Type != "max" {
		t.Fatalf("expected one max error, got %v", errs)
	}
	if errs[0].Message != "Must be at most 200 characters" {
		t.Errorf("unexpected message: %s", errs[0].Message)
	}
}
