package utils

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID("tan")
	if !strings.HasPrefix(id, "tan-") {
		t.Errorf("expected tan- prefix, got %s", id)
	}
	if len(id) != len("tan-")+10 {
		t.Errorf("unexpected length: %s", id)
	}
	if id == GenerateID("tan") {
		t.Error("expected unique IDs")
	}
}

func TestGenerateAccountNumber(t *testing.T) {
	for i := 0; i < 100; i++ {
		num := GenerateAccountNumber()
		if !ValidateAccountNumber(num) {
			t.Fatalf("generated invalid account number %s", num)
		}
	}
}

func TestValidateAccountNumber(t *testing.T) {
	cases := map[string]bool{
		"01234567":  true,
		"0123456":   false,
		"012345678": false,
		"91234567":  false,
		"":          false,
	}
	for input, expected := range cases {
		if got := ValidateAccountNumber(input); got != expected {
			t.Errorf("ValidateAccountNumber(%q) = %v, expected %v", input, got, expected)
		}
	}
}
