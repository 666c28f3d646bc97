// Package servings validates user-typed decimal quantities such as "1.5" or ".25".
package servings

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrEmptyInput = errors.New("empty_input")
	ErrFormat     = errors.New("format_error")
	ErrRange      = errors.New("range_error")
)

// digits, optionally followed by "." and one or two digits
var decimalPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ValidationError carries the offending input and a user-facing message.
type ValidationError struct {
	Input   string
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Normalize parses a servings multiplier. The result is > 0 and has at most two
// fractional digits.
func Normalize(raw string) (float64, error) {
	v, err := parse(raw, "Servings")
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &ValidationError{Input: raw, Kind: ErrRange, Message: "Servings must be > 0"}
	}
	return v, nil
}

// Amount parses a non-negative macro amount ("0", "12.5", ".25"). Empty input
// yields def.
func Amount(raw string, def float64) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return parse(raw, "Value")
}

// RequiredAmount is Amount without a default.
func RequiredAmount(raw string, field string) (float64, error) {
	return parse(raw, field)
}

func parse(raw string, field string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &ValidationError{Input: raw, Kind: ErrEmptyInput, Message: field + " is required"}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	if !decimalPattern.MatchString(s) {
		// "-1" is a number, just not a usable one
		if unsigned, ok := strings.CutPrefix(s, "-"); ok {
			if strings.HasPrefix(unsigned, ".") {
				unsigned = "0" + unsigned
			}
			if decimalPattern.MatchString(unsigned) {
				return 0, &ValidationError{Input: raw, Kind: ErrRange, Message: field + " cannot be negative"}
			}
		}
		return 0, &ValidationError{
			Input:   raw,
			Kind:    ErrFormat,
			Message: "Use a number with up to 2 decimals (e.g., 1, 1.5, 0.25)",
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &ValidationError{Input: raw, Kind: ErrRange, Message: field + " is out of range"}
	}

	return Round2(v), nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
