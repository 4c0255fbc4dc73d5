package validator

import (
	"regexp"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// ParsePeriod validates a from/to query pair and returns the parsed bounds.
func ParsePeriod(fromStr, toStr string) (time.Time, time.Time, ValidationErrors) {
	var errs ValidationErrors

	from, ok := IsValidDate(fromStr)
	if !ok {
		errs = append(errs, ValidationError{Field: "from", Message: "must be a date in YYYY-MM-DD format"})
	}
	to, ok := IsValidDate(toStr)
	if !ok {
		errs = append(errs, ValidationError{Field: "to", Message: "must be a date in YYYY-MM-DD format"})
	}
	if len(errs) == 0 && to.Before(from) {
		errs = append(errs, ValidationError{Field: "to", Message: "must not be before from"})
	}

	return from, to, errs
}

// Time-slot validation: "HH:MM" or "HH:MM-HH:MM"
var timeSlotRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(-([01]\d|2[0-3]):[0-5]\d)?$`)

func IsValidTimeSlot(slot string) bool {
	return timeSlotRegex.MatchString(slot)
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.
var uuidv7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// UUIDv7 validation
func IsValidUUID(uuid string) bool {
	return uuidv7Regex.MatchString(strings.ToLower(uuid))
}
