package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateEvent checks the write invariants shared by AddEvent and
// UpdateEvent, with times already normalized to UTC.
func ValidateEvent(e Event) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("event name is blank: %w", ErrBlankName)
	}
	if strings.TrimSpace(e.Location) == "" {
		return fmt.Errorf("event location is blank: %w", ErrBlankLocation)
	}
	if !e.StartTime.After(time.Now()) {
		return fmt.Errorf("start time of the event must be in the future: %w", ErrPastStartTime)
	}
	if !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("event end time should be after start time: %w", ErrEndBeforeStart)
	}
	if e.MaxCapacity < 1 {
		return fmt.Errorf("max capacity %d: %w", e.MaxCapacity, ErrInvalidCapacity)
	}
	return nil
}

// ValidateAttendee checks registration input before any row is written.
func ValidateAttendee(a Attendee) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("attendee name is blank: %w", ErrBlankName)
	}
	if err := validate.Var(a.Email, "required,email"); err != nil {
		return fmt.Errorf("email %q: %w", a.Email, ErrInvalidEmail)
	}
	return nil
}
