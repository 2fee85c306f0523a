package importer

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// The sniffing pass guesses a required value from the shape of the cells
// when its mapped column is empty in a row. It is best effort: cells are
// scanned in column order and the first plausible cell wins. A cell that
// already supplied another field is not reused.

var (
	amountFloor = decimal.NewFromInt(1000)
	rateCeiling = decimal.NewFromInt(100)
	termCeiling = decimal.NewFromInt(600)
)

type sniffer struct {
	cells []string
	used  map[int]bool
}

func (s *sniffer) take(match func(string) bool) (string, bool) {
	for i, c := range s.cells {
		if s.used[i] || c == "" {
			continue
		}
		if match(c) {
			s.used[i] = true
			return c, true
		}
	}
	return "", false
}

func (s *sniffer) field(f Field) (string, bool) {
	switch f {
	case FieldAmount:
		return s.take(sniffAmount)
	case FieldInterestRate:
		return s.take(sniffRate)
	case FieldTerm:
		return s.take(sniffTerm)
	case FieldStartDate:
		return s.take(looksLikeDate)
	case FieldBorrower:
		return s.take(sniffName)
	}
	return "", false
}

func sniffNumber(c string) (decimal.Decimal, bool) {
	if looksLikeDate(c) {
		return decimal.Zero, false
	}
	return parseNumber(c)
}

func sniffAmount(c string) bool {
	d, ok := sniffNumber(c)
	return ok && d.GreaterThan(amountFloor)
}

func sniffRate(c string) bool {
	d, ok := sniffNumber(c)
	return ok && d.IsPositive() && d.LessThan(rateCeiling)
}

func sniffTerm(c string) bool {
	d, ok := sniffNumber(c)
	return ok && d.IsInteger() && d.IsPositive() && d.LessThan(termCeiling)
}

func sniffName(c string) bool {
	if strings.Contains(c, "@") || looksLikeDate(c) {
		return false
	}
	if _, ok := parseNumber(c); ok {
		return false
	}
	return strings.IndexFunc(c, unicode.IsLetter) >= 0
}
