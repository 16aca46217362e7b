package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFoundEvent         = errors.New("event not found")
	ErrDuplicateEventName    = errors.New("event with this name already exists")
	ErrBlankName             = errors.New("name must not be blank")
	ErrBlankLocation         = errors.New("location must not be blank")
	ErrPastStartTime         = errors.New("start time must be in the future")
	ErrEndBeforeStart        = errors.New("end time must be after start time")
	ErrInvalidCapacity       = errors.New("max capacity must be at least 1")
	ErrCapacityExceeded      = errors.New("event is full")
	ErrDuplicateRegistration = errors.New("attendee already registered for this event")
	ErrInvalidEmail          = errors.New("invalid email address")
)

// Page selects one slice of a listing.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type EventStore interface {
	AddEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (Event, error)
	GetUpcomingEvents(ctx context.Context, page Page) ([]Event, int, error)
	UpdateEvent(ctx context.Context, id int64, e Event) error
}

type RegistrationLedger interface {
	RegisterAttendee(ctx context.Context, eventID int64, a *Attendee) error
	GetAttendees(ctx context.Context, eventID int64, page Page) ([]Attendee, int, error)
}

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	EventStore
	RegistrationLedger
}
