package loan

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Records are stored as JSON; encoding/json rejects years past 9999.
const maxYear = 9999

// Validate checks the facts a loan must carry before it can be stored.
func (l Loan) Validate() error {
	switch {
	case strings.TrimSpace(l.BorrowerName) == "":
		return invalid("borrowerName", "is required")
	case !(l.PrincipalAmount > 0) || math.IsInf(l.PrincipalAmount, 0):
		return invalid("principalAmount", "must be positive")
	case l.InterestRate < 0 || math.IsNaN(l.InterestRate):
		return invalid("interestRate", "must be zero or positive")
	case l.TermMonths <= 0:
		return invalid("termMonths", "must be a positive number of months")
	case l.TermMonths > MaxTermMonths:
		return invalid("termMonths", fmt.Sprintf("must not exceed %d months", MaxTermMonths))
	case l.StartDate.IsZero():
		return invalid("startDate", "is required")
	case strings.TrimSpace(l.OwnerID) == "":
		return invalid("ownerId", "is required")
	case l.EndDate.Year() > maxYear:
		return invalid("endDate", "is out of range")
	}
	if err := ValidateSchedule(l.PaymentSchedule); err != nil {
		return err
	}
	return validateObligations(l.Obligations)
}

func validateObligations(os []Obligation) error {
	seen := make(map[string]bool, len(os))
	for _, o := range os {
		switch {
		case !o.Type.Valid():
			return invalid("obligations", "unknown obligation type "+string(o.Type))
		case strings.TrimSpace(o.Title) == "":
			return invalid("obligations", "title is required")
		case o.DueDate.IsZero():
			return invalid("obligations", "due date is required")
		case o.ID == "" || seen[o.ID]:
			return invalid("obligations", "obligation ids must be unique and non-empty")
		}
		seen[o.ID] = true
	}
	return nil
}

// ValidateSchedule checks payment statuses and that due dates ascend with
// one payment per period.
func ValidateSchedule(s []Payment) error {
	seen := make(map[string]bool, len(s))
	for i, p := range s {
		if !p.Status.Valid() {
			return invalid("paymentSchedule", "unknown payment status "+string(p.Status))
		}
		if p.ID == "" || seen[p.ID] {
			return invalid("paymentSchedule", "payment ids must be unique and non-empty")
		}
		seen[p.ID] = true
		if p.DueDate.Year() > maxYear {
			return invalid("paymentSchedule", "due date is out of range")
		}
		if i > 0 && !Day(s[i-1].DueDate).Before(Day(p.DueDate)) {
			return invalid("paymentSchedule", "due dates must be strictly ascending")
		}
	}
	return nil
}

// SortSchedule orders payments by due date.
func SortSchedule(s []Payment) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].DueDate.Before(s[j].DueDate) })
}
