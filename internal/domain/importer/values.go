package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const isoDate = "2006-01-02"

var (
	reISODate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reNumericDate = regexp.MustCompile(`^(\d{1,4})[/.-](\d{1,2})[/.-](\d{1,4})$`)
	reDateLike    = regexp.MustCompile(`^(\d{4}[/.-]\d{1,2}[/.-]\d{1,2}([T ].*)?|\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|[A-Za-z]{3,9}\.? \d{1,2},? \d{4}|\d{1,2}[ -][A-Za-z]{3,9}[ -]\d{2,4})$`)
	reLeadingNum  = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)

	genericLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-1-2",
		"2006/1/2",
		"2006.1.2",
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 2 2006",
		"January 2 2006",
		"Jan. 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"02-Jan-2006",
		"2-Jan-06",
		"Mon, 02 Jan 2006",
	}
)

var numberReplacer = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", " ", "", "\u00a0", "", "%", "")

// parseNumber reads a cell that is entirely a number, allowing currency
// symbols, thousands separators and a percent sign.
func parseNumber(s string) (decimal.Decimal, bool) {
	clean := numberReplacer.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseLeadingNumber is parseNumber that also accepts a trailing unit, as in
// "36 months" or "6.5 % p.a.".
func parseLeadingNumber(s string) (decimal.Decimal, bool) {
	if d, ok := parseNumber(s); ok {
		return d, true
	}
	clean := strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(strings.TrimSpace(s))
	m := reLeadingNum.FindString(clean)
	if m == "" {
		return decimal.Zero, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(clean, m))
	if rest != "" && !unitSuffix(rest) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	return d, err == nil
}

func unitSuffix(s string) bool {
	c := s[0]
	return c == '%' || (c|0x20 >= 'a' && c|0x20 <= 'z')
}

// looksLikeDate reports whether a cell has the shape of a date.
func looksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	if !reDateLike.MatchString(s) {
		return false
	}
	_, err := NormalizeDate(s)
	return err == nil
}

// NormalizeDate returns s as YYYY-MM-DD. YYYY-MM-DD input is returned as is;
// other input is tried against common layouts and finally read as a
// slash or dash separated date, where a four-digit first field means Y/M/D
// and otherwise the last field is the year and M/D is assumed unless the
// first field cannot be a month.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	if reISODate.MatchString(s) {
		if _, err := time.Parse(isoDate, s); err != nil {
			return "", fmt.Errorf("invalid date %q: %w", s, err)
		}
		return s, nil
	}
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate), nil
		}
	}
	m := reNumericDate.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("unrecognized date %q", s)
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])

	var y, mo, d int
	switch {
	case len(m[1]) == 4:
		y, mo, d = a, b, c
	case len(m[3]) == 4 || len(m[3]) == 2:
		y = c
		if len(m[3]) == 2 {
			y += 2000
		}
		mo, d = a, b
		if a > 12 {
			mo, d = b, a
		}
	default:
		return "", fmt.Errorf("unrecognized date %q", s)
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return t.Format(isoDate), nil
}

// ParseDate normalizes s and returns it as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	n, err := NormalizeDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(isoDate, n)
}
