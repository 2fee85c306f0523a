package http

import (
	"errors"
	"strings"
	"testing"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestDec2Validation(t *testing.T) {
	type P struct {
		Amount float64 `json:"amount" validate:"dec2"`
	}
	cv := NewValidator()

	for _, v := range []float64{1.29, 2.00, 0.9, 250000} {
		if err := cv.Validate(P{Amount: v}); err != nil {
			t.Fatalf("expected dec2 OK for %v, got %v", v, err)
		}
	}
	for _, v := range []float64{1.234, 2.9999} {
		err := cv.Validate(P{Amount: v})
		if err == nil {
			t.Fatalf("expected dec2 error for %v", v)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "amount", "at most 2 decimal places") {
			t.Fatalf("expected 'at most 2 decimal places' for %v, got %+v", v, fe)
		}
	}
}

func TestEnumValidation(t *testing.T) {
	cv := NewValidator()

	ok := paymentPatchReq{Status: "paid", PaidDate: "2025-03-01"}
	if err := cv.Validate(ok); err != nil {
		t.Fatalf("expected valid payment patch, got %v", err)
	}
	err := cv.Validate(paymentPatchReq{Status: "settled"})
	if fe := ToFieldErrors(err); !containsFieldMsg(fe, "status", "pending, paid, overdue, partial") {
		t.Fatalf("payment status message missing: %+v", fe)
	}

	err = cv.Validate(obligationReq{Type: "legal", Title: "x", DueDate: "2025-01-01"})
	if fe := ToFieldErrors(err); !containsFieldMsg(fe, "type", "financial, reporting") {
		t.Fatalf("obligation type message missing: %+v", fe)
	}
}

func TestCreateLoanReq_NestedJSONNames(t *testing.T) {
	cv := NewValidator()
	req := createLoanReq{
		BorrowerName:    "Acme",
		BorrowerEmail:   "not-an-email",
		PrincipalAmount: 1000,
		InterestRate:    5,
		TermMonths:      12,
		StartDate:       "03/01/2025",
		Obligations:     []obligationReq{{Type: "reporting", DueDate: "2025-06-30"}},
	}
	fe := ToFieldErrors(cv.Validate(req))

	if !containsFieldMsg(fe, "borrowerEmail", "valid email") {
		t.Fatalf("email: %+v", fe)
	}
	if !containsFieldMsg(fe, "startDate", "2006-01-02") {
		t.Fatalf("startDate: %+v", fe)
	}
	if !containsFieldMsg(fe, "obligations[0].title", "is required") {
		t.Fatalf("nested title: %+v", fe)
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name      string  `json:"name" validate:"required"`
		Term      int     `json:"termMonths" validate:"gt=0"`
		Rate      float64 `json:"interestRate" validate:"lte=100"`
		Direction string  `json:"direction" validate:"omitempty,oneof=inbound outbound"`
	}
	cv := NewValidator()

	err := cv.Validate(P{Term: 0, Rate: 101, Direction: "sideways"})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)

	if !containsFieldMsg(fe, "name", "is required") {
		t.Fatalf("missing 'is required' for name: %+v", fe)
	}
	if !containsFieldMsg(fe, "termMonths", "greater than 0") {
		t.Fatalf("missing gt message: %+v", fe)
	}
	if !containsFieldMsg(fe, "interestRate", "less than or equal to 100") {
		t.Fatalf("missing lte message: %+v", fe)
	}
	if !containsFieldMsg(fe, "direction", "inbound, outbound") {
		t.Fatalf("missing oneof message: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	fe := ToFieldErrors(errors.New("boom"))
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}
