package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eventbook/eventbook/internal/storage"
)

type Storage struct {
	mu          sync.RWMutex
	events      map[int64]storage.Event
	attendees   map[int64]storage.Attendee
	eventSeq    int64
	attendeeSeq int64
}

func New() *Storage {
	return &Storage{
		events:    make(map[int64]storage.Event),
		attendees: make(map[int64]storage.Attendee),
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	if err := storage.ValidateEvent(*e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(e.Name, 0) {
		return fmt.Errorf("event name %q: %w", e.Name, storage.ErrDuplicateEventName)
	}
	s.eventSeq++
	e.ID = s.eventSeq
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.events[e.ID] = *e
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id int64) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

func (s *Storage) GetUpcomingEvents(_ context.Context, page storage.Page) ([]storage.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	upcoming := make([]storage.Event, 0)
	for _, e := range s.events {
		if !e.StartTime.Before(now) {
			upcoming = append(upcoming, e)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].ID > upcoming[j].ID })

	start := page.Offset()
	if start >= len(upcoming) {
		return []storage.Event{}, len(upcoming), nil
	}
	end := start + page.Size
	if end > len(upcoming) {
		end = len(upcoming)
	}
	return upcoming[start:end], len(upcoming), nil
}

func (s *Storage) UpdateEvent(_ context.Context, id int64, e storage.Event) error {
	if err := storage.ValidateEvent(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.events[id]
	if !ok {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	if s.nameTaken(e.Name, id) {
		return fmt.Errorf("event name %q: %w", e.Name, storage.ErrDuplicateEventName)
	}
	e.ID = id
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.events[id] = e
	return nil
}

// RegisterAttendee performs the existence, capacity, input and uniqueness
// checks and the insert under one lock, so concurrent registrations cannot
// jointly exceed the event capacity.
func (s *Storage) RegisterAttendee(_ context.Context, eventID int64, a *storage.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return fmt.Errorf("failed to register for event with id %d: %w", eventID, storage.ErrNotFoundEvent)
	}
	if s.countAttendees(eventID) >= event.MaxCapacity {
		return fmt.Errorf("event %d is at capacity %d: %w", eventID, event.MaxCapacity, storage.ErrCapacityExceeded)
	}
	if err := storage.ValidateAttendee(*a); err != nil {
		return err
	}
	for _, reg := range s.attendees {
		if reg.EventID == eventID && reg.Email == a.Email {
			return fmt.Errorf("email %q for event %d: %w", a.Email, eventID, storage.ErrDuplicateRegistration)
		}
	}

	s.attendeeSeq++
	a.ID = s.attendeeSeq
	a.EventID = eventID
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.attendees[a.ID] = *a
	return nil
}

func (s *Storage) GetAttendees(_ context.Context, eventID int64, page storage.Page) ([]storage.Attendee, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs := make([]storage.Attendee, 0)
	for _, a := range s.attendees {
		if a.EventID == eventID {
			regs = append(regs, a)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })

	start := page.Offset()
	if start >= len(regs) {
		return []storage.Attendee{}, len(regs), nil
	}
	end := start + page.Size
	if end > len(regs) {
		end = len(regs)
	}
	return regs[start:end], len(regs), nil
}

func (s *Storage) countAttendees(eventID int64) int {
	count := 0
	for _, a := range s.attendees {
		if a.EventID == eventID {
			count++
		}
	}
	return count
}

func (s *Storage) nameTaken(name string, excludeID int64) bool {
	for _, e := range s.events {
		if e.Name == name && e.ID != excludeID {
			return true
		}
	}
	return false
}
