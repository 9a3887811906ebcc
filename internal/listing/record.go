// Package listing turns a vehicle listing detail page, plus the phone and
// image-gallery AJAX fragments behind it, into a Record.
package listing

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Record is one extracted listing. Field order is the JSON artifact order.
type Record struct {
	ID          int64  `json:"id" yaml:"id" validate:"required,gt=0"`
	Href        string `json:"href" yaml:"href" validate:"required,url"`
	Title       string `json:"title" yaml:"title"`
	Price       int64  `json:"price" yaml:"price" validate:"gte=0"`
	Mileage     int64  `json:"mileage" yaml:"mileage" validate:"gte=0"`
	Color       string `json:"color" yaml:"color"`
	Power       int64  `json:"power" yaml:"power" validate:"gte=0"`
	Description string `json:"description" yaml:"description"`
	Phone       string `json:"phone" yaml:"phone"`

	// Images are the source URLs of the downloaded gallery images.
	Images []string `json:"-" yaml:"-"`
}

// MissingFieldError indicates a required node is absent from the page.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

var validate = validator.New()

// Validate checks the record invariants: a positive id, an absolute href
// and non-negative numbers.
func (r Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate listing: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatValidationError(e))
	}
	return fmt.Errorf("invalid listing %d: %s", r.ID, strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s, got %v", e.Field(), e.Tag(), e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be an absolute URL, got %q", e.Field(), e.Value())
	default:
		return fmt.Sprintf("%s failed %s", e.Field(), e.Tag())
	}
}
