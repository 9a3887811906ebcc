// Package normalize turns locale-formatted listing text ("12.345 km",
// "90,5 kW", "€ 24.990,-") into integers.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Format selects the number parser.
type Format string

const (
	FormatLocale Format = "locale"
	FormatLegacy Format = "legacy"
)

// MalformedFieldError is returned when a field's text does not contain a
// number in the expected shape.
type MalformedFieldError struct {
	Field string
	Raw   string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed %s value %q", e.Field, e.Raw)
}

// Legacy patterns. Both capture groups are concatenated as digit strings.
var (
	LegacyPricePattern   = regexp.MustCompile(`^\D*([\d.]+),?(\d*)`)
	LegacyMileagePattern = regexp.MustCompile(`^\D*([\d.]+),?(\d*)`)
	LegacyPowerPattern   = regexp.MustCompile(`(\d+),?(\d*)\s*kW`)
)

var (
	localeNumber = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:,\d+)?`)
	localePower  = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:,\d+)?)\s*kW`)
)

// ExtractInteger matches pattern against raw, strips every non-digit from
// capture groups 1 and 2 and parses their concatenation.
//
// The result is lossy for values with decimal subunits: "1.234,56 €"
// yields 123456, not 1234.
func ExtractInteger(field, raw string, pattern *regexp.Regexp) (int64, error) {
	m := pattern.FindStringSubmatch(raw)
	if m == nil || len(m) < 3 {
		return 0, &MalformedFieldError{Field: field, Raw: raw}
	}
	digits := digitsOnly(m[1]) + digitsOnly(m[2])
	if digits == "" {
		return 0, &MalformedFieldError{Field: field, Raw: raw}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &MalformedFieldError{Field: field, Raw: raw}
	}
	return n, nil
}

// ParseLocaleNumber parses the first German-formatted number in raw:
// "." groups thousands and "," separates decimals.
func ParseLocaleNumber(field, raw string) (float64, error) {
	token := localeNumber.FindString(raw)
	if token == "" {
		return 0, &MalformedFieldError{Field: field, Raw: raw}
	}
	return parseLocaleToken(field, raw, token)
}

func parseLocaleToken(field, raw, token string) (float64, error) {
	token = strings.ReplaceAll(token, ".", "")
	token = strings.Replace(token, ",", ".", 1)
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, &MalformedFieldError{Field: field, Raw: raw}
	}
	return f, nil
}

// Parser converts the three numeric listing fields.
type Parser interface {
	Price(raw string) (int64, error)
	Mileage(raw string) (int64, error)
	Power(raw string) (int64, error)
}

// NewParser returns the parser for the given format.
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatLocale, "":
		return Locale{}, nil
	case FormatLegacy:
		return Legacy{}, nil
	default:
		return nil, fmt.Errorf("unknown number format: %s", format)
	}
}

// Legacy reproduces the digit-concatenation heuristic of the first
// scraper generation.
type Legacy struct{}

func (Legacy) Price(raw string) (int64, error) {
	return ExtractInteger("price", raw, LegacyPricePattern)
}

func (Legacy) Mileage(raw string) (int64, error) {
	return ExtractInteger("mileage", raw, LegacyMileagePattern)
}

// Power joins the groups with a decimal point and rounds half to even.
func (Legacy) Power(raw string) (int64, error) {
	m := LegacyPowerPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, &MalformedFieldError{Field: "power", Raw: raw}
	}
	num := m[1]
	if m[2] != "" {
		num += "." + m[2]
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &MalformedFieldError{Field: "power", Raw: raw}
	}
	return int64(math.RoundToEven(f)), nil
}

// Locale parses numbers with German grouping and decimal separators.
// Fractions are rounded half to even.
type Locale struct{}

func (Locale) Price(raw string) (int64, error) {
	return localeInt("price", raw)
}

func (Locale) Mileage(raw string) (int64, error) {
	return localeInt("mileage", raw)
}

// Power reads the number directly in front of the "kW" unit so that a
// trailing horsepower figure is ignored.
func (Locale) Power(raw string) (int64, error) {
	m := localePower.FindStringSubmatch(raw)
	if m == nil {
		return 0, &MalformedFieldError{Field: "power", Raw: raw}
	}
	f, err := parseLocaleToken("power", raw, m[1])
	if err != nil {
		return 0, err
	}
	return int64(math.RoundToEven(f)), nil
}

func localeInt(field, raw string) (int64, error) {
	f, err := ParseLocaleNumber(field, raw)
	if err != nil {
		return 0, err
	}
	if f >= math.MaxInt64 {
		return 0, &MalformedFieldError{Field: field, Raw: raw}
	}
	return int64(math.RoundToEven(f)), nil
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
