package normalize

import (
	"errors"
	"testing"
)

// --- ExtractInteger Tests ---

func TestExtractInteger_PriceConcatenation(t *testing.T) {
	// The two groups are glued together; the cents become part of the value.
	got, err := ExtractInteger("price", "1.234,56 €", LegacyPricePattern)
	if err != nil {
		t.Fatalf("ExtractInteger() error = %v", err)
	}
	if got != 123456 {
		t.Errorf("expected 123456, got %d", got)
	}
}

func TestExtractInteger_Mileage(t *testing.T) {
	got, err := ExtractInteger("mileage", "12.345 km", LegacyMileagePattern)
	if err != nil {
		t.Fatalf("ExtractInteger() error = %v", err)
	}
	if got != 12345 {
		t.Errorf("expected 12345, got %d", got)
	}
}

func TestExtractInteger_NoMatch(t *testing.T) {
	_, err := ExtractInteger("price", "Preis auf Anfrage", LegacyPricePattern)
	if err == nil {
		t.Fatal("expected error for text without digits")
	}

	var mfe *MalformedFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected *MalformedFieldError, got %T", err)
	}
	if mfe.Field != "price" {
		t.Errorf("expected field 'price', got %q", mfe.Field)
	}
	if mfe.Raw != "Preis auf Anfrage" {
		t.Errorf("expected raw text preserved, got %q", mfe.Raw)
	}
}

func TestExtractInteger_OnlySeparators(t *testing.T) {
	_, err := ExtractInteger("mileage", "... km", LegacyMileagePattern)
	if err == nil {
		t.Error("expected error when groups contain no digits")
	}
}

// --- Legacy Tests ---

func TestLegacy_Price(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"€ 24.990,-", 24990},
		{"1.234,56 €", 123456},
		{"1234 €", 1234},
		{"0", 0},
		{"€ 1.250.000", 1250000},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Legacy{}.Price(tt.raw)
			if err != nil {
				t.Fatalf("Price(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Price(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLegacy_Power_RoundHalfToEven(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"90,5 kW", 90},
		{"91,5 kW", 92},
		{"90 kW (122 PS)", 90},
		{"96,2 kW (131 PS)", 96},
		{"120,7 kW", 121},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Legacy{}.Power(tt.raw)
			if err != nil {
				t.Fatalf("Power(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Power(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLegacy_Power_MissingUnit(t *testing.T) {
	_, err := Legacy{}.Power("122 PS")
	var mfe *MalformedFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected *MalformedFieldError, got %v", err)
	}
	if mfe.Field != "power" {
		t.Errorf("expected field 'power', got %q", mfe.Field)
	}
}

// --- Locale Tests ---

func TestParseLocaleNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1.234,56 €", 1234.56},
		{"12.345 km", 12345},
		{"1.234.567 km", 1234567},
		{"€ 24.990,-", 24990},
		{"90,5 kW", 90.5},
		{"1234 €", 1234},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocaleNumber("value", tt.raw)
			if err != nil {
				t.Fatalf("ParseLocaleNumber(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocaleNumber(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLocaleNumber_NoNumber(t *testing.T) {
	_, err := ParseLocaleNumber("price", "auf Anfrage")
	if err == nil {
		t.Error("expected error for text without a number")
	}
}

func TestLocale_Price(t *testing.T) {
	got, err := Locale{}.Price("1.234,56 €")
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if got != 1235 {
		t.Errorf("expected 1235, got %d", got)
	}

	// Both spellings of the same amount agree, unlike the legacy parser.
	a, _ := Locale{}.Price("1.234 €")
	b, _ := Locale{}.Price("1234 €")
	if a != b {
		t.Errorf("expected equal values, got %d and %d", a, b)
	}
}

func TestLocale_Price_OutOfRange(t *testing.T) {
	for _, raw := range []string{
		"9.223.372.036.854.775.807 €",
		"9.223.372.036.854.775.808 €",
		"99.999.999.999.999.999.999 €",
	} {
		got, err := Locale{}.Price(raw)
		var mfe *MalformedFieldError
		if !errors.As(err, &mfe) {
			t.Errorf("Price(%q) = %d, %v; want *MalformedFieldError", raw, got, err)
		}
		if got < 0 {
			t.Errorf("Price(%q) returned negative %d", raw, got)
		}
	}
}

func TestLocale_Mileage(t *testing.T) {
	got, err := Locale{}.Mileage("12.345 km")
	if err != nil {
		t.Fatalf("Mileage() error = %v", err)
	}
	if got != 12345 {
		t.Errorf("expected 12345, got %d", got)
	}
}

func TestLocale_Power(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"90,5 kW", 90},
		{"91,5 kW", 92},
		{"110 kW (150 PS)", 110},
		{"1.100 kW", 1100},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Locale{}.Power(tt.raw)
			if err != nil {
				t.Fatalf("Power(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Power(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

// --- NewParser Tests ---

func TestNewParser(t *testing.T) {
	p, err := NewParser(FormatLegacy)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	if _, ok := p.(Legacy); !ok {
		t.Errorf("expected Legacy, got %T", p)
	}

	p, err = NewParser("")
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	if _, ok := p.(Locale); !ok {
		t.Errorf("expected Locale as default, got %T", p)
	}

	if _, err := NewParser("roman"); err == nil {
		t.Error("expected error for unknown format")
	}
}
