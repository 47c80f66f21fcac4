// =============================================================================
// Vessel Flow Parser - Field Validation Engine
// =============================================================================
//
// This module validates single output fields at the moment they are committed
// to a record sink. A field that fails validation makes the commit fail, which
// in turn triggers the converter's rollback and commit-failure policy.
//
// RULES (applied in this order, first failure wins):
//   1. known_field - the field must be one of the 21 output fields
//   2. encoding    - valid UTF-8 without control characters (tab, LF, CR allowed)
//   3. max_length  - per-field limit in characters
//   4. date_format - date fields must match their encoding when non-empty
//   5. status      - status fields must be empty, "Forecast" or "Actual"
//   6. custom      - optional per-field functions from ValidationOptions
//
// CUSTOMIZATION:
//   - Override limits with ValidationOptions.MaxLengths
//   - Register business rules with ValidationOptions.CustomValidators
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vitaliisumka/workbook-parser/internal/flow"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Rule names reported in FieldError.Rule.
const (
	RuleKnownField = "known_field"
	RuleEncoding   = "encoding"
	RuleMaxLength  = "max_length"
	RuleDateFormat = "date_format"
	RuleStatus     = "status"
	RuleCustom     = "custom"
)

// FieldError represents a single field that failed validation.
type FieldError struct {
	// Field is the output field that failed validation.
	Field flow.Field

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s (value: '%s')", e.Field, e.Message, truncate(e.Value, 40))
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Default per-field length limits, counted in characters.
const (
	DefaultMaxLength         = 255
	DefaultIDMaxLength       = 64
	DefaultCommentsMaxLength = 2000
)

// CustomValidatorFunc is a function type for custom validators.
// It returns an error message if validation fails, or "" if the value is valid.
type CustomValidatorFunc func(field flow.Field, value string) string

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// MaxLengths overrides the length limit of individual fields.
	MaxLengths map[flow.Field]int

	// CustomValidators is a map of custom validation functions keyed by field.
	CustomValidators map[flow.Field]CustomValidatorFunc
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxLengths: map[flow.Field]int{
			flow.FieldID:              DefaultIDMaxLength,
			flow.FieldComments:        DefaultCommentsMaxLength,
			flow.FieldCommentsPrivate: DefaultCommentsMaxLength,
		},
		CustomValidators: make(map[flow.Field]CustomValidatorFunc),
	}
}

// Validator checks field values against the output rules.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator with the default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
// Limits not present in options fall back to the defaults.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	merged := DefaultValidationOptions()
	for f, n := range options.MaxLengths {
		merged.MaxLengths[f] = n
	}
	for f, fn := range options.CustomValidators {
		merged.CustomValidators[f] = fn
	}
	return &Validator{options: merged}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateField validates one value for one output field.
//
// RETURNS:
//   - nil if the value may be committed.
//   - A *FieldError describing the first violated rule otherwise.
func (v *Validator) ValidateField(field flow.Field, value string) *FieldError {
	fail := func(rule, msg string) *FieldError {
		return &FieldError{Field: field, Value: value, Rule: rule, Message: msg}
	}

	if !flow.IsField(field) {
		return fail(RuleKnownField, "unknown output field")
	}

	if msg := validateEncoding(value); msg != "" {
		return fail(RuleEncoding, msg)
	}

	if limit := v.maxLength(field); utf8.RuneCountInString(value) > limit {
		return fail(RuleMaxLength, fmt.Sprintf("value exceeds maximum length of %d characters (actual: %d)",
			limit, utf8.RuneCountInString(value)))
	}

	if value != "" {
		if layout, ok := dateLayouts[field]; ok {
			if _, err := time.Parse(layout, value); err != nil {
				return fail(RuleDateFormat, fmt.Sprintf("value does not match date format '%s'", layout))
			}
		}
	}

	if statusFields[field] && !validStatus(value) {
		return fail(RuleStatus, fmt.Sprintf("status must be empty, %q or %q", flow.Forecast, flow.Actual))
	}

	if custom, ok := v.options.CustomValidators[field]; ok {
		if msg := custom(field, value); msg != "" {
			return fail(RuleCustom, msg)
		}
	}

	return nil
}

// ValidateRecord validates every value of a record and returns all failures.
func (v *Validator) ValidateRecord(record *flow.Record) []*FieldError {
	var errs []*FieldError
	for _, fv := range record.Values {
		if err := v.ValidateField(fv.Field, fv.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (v *Validator) maxLength(field flow.Field) int {
	if n, ok := v.options.MaxLengths[field]; ok && n > 0 {
		return n
	}
	return DefaultMaxLength
}

// =============================================================================
// RULE TABLES
// =============================================================================

// dateLayouts maps date fields to the encoding they are emitted in.
var dateLayouts = map[flow.Field]string{
	flow.FieldCreationDate:    flow.EncodingALayout,
	flow.FieldLoadDateFrom:    flow.EncodingBLayout,
	flow.FieldLoadDateTo:      flow.EncodingBLayout,
	flow.FieldArrivalDateFrom: flow.EncodingBLayout,
	flow.FieldArrivalDateTo:   flow.EncodingBLayout,
}

var statusFields = map[flow.Field]bool{
	flow.FieldLoadDateStatus:    true,
	flow.FieldArrivalDateStatus: true,
}

func validStatus(value string) bool {
	return value == "" || value == flow.Forecast.String() || value == flow.Actual.String()
}

// validateEncoding rejects invalid UTF-8 and control characters.
func validateEncoding(value string) string {
	if !utf8.ValidString(value) {
		return "value is not valid UTF-8"
	}
	for _, r := range value {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return fmt.Sprintf("value contains control character %U", r)
		}
	}
	return ""
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*FieldError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, err.Rule, err.Error()))
	}

	return builder.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
