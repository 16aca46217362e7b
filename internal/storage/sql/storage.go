package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventbook/eventbook/internal/storage"
	"github.com/eventbook/eventbook/migrations"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	return migrations.Apply(ctx, s.db)
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if err := storage.ValidateEvent(*e); err != nil {
		return err
	}

	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	err := s.db.GetContext(
		ctx,
		e,
		"INSERT INTO events(name, location, start_time, end_time, max_capacity) "+
			"VALUES($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at",
		e.Name, e.Location, e.StartTime, e.EndTime, e.MaxCapacity)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("event name %q: %w", e.Name, storage.ErrDuplicateEventName)
	}

	return err
}

func (s *Storage) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	var e storage.Event
	err := s.db.GetContext(
		ctx,
		&e,
		"SELECT id, name, location, start_time, end_time, max_capacity, created_at, updated_at "+
			"FROM events WHERE id=$1",
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return e, err
}

func (s *Storage) GetUpcomingEvents(ctx context.Context, page storage.Page) ([]storage.Event, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events WHERE start_time >= NOW()"); err != nil {
		return nil, 0, err
	}

	events := make([]storage.Event, 0)
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT id, name, location, start_time, end_time, max_capacity, created_at, updated_at "+
			"FROM events WHERE start_time >= NOW() ORDER BY id DESC LIMIT $1 OFFSET $2",
		page.Size, page.Offset(),
	)
	return events, total, err
}

func (s *Storage) UpdateEvent(ctx context.Context, id int64, e storage.Event) error {
	if err := storage.ValidateEvent(e); err != nil {
		return err
	}

	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE events SET name=$2, location=$3, start_time=$4, end_time=$5, max_capacity=$6, "+
			"updated_at=NOW() WHERE id=$1 RETURNING TRUE",
		id, e.Name, e.Location, e.StartTime.UTC(), e.EndTime.UTC(), e.MaxCapacity,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("event name %q: %w", e.Name, storage.ErrDuplicateEventName)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

// RegisterAttendee runs the capacity check and the insert in one transaction
// with the event row locked, so concurrent registrations serialize and the
// count can never pass max_capacity. The unique constraint on
// (event_id, email) backstops duplicates regardless.
func (s *Storage) RegisterAttendee(ctx context.Context, eventID int64, a *storage.Attendee) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var maxCapacity int
	err = tx.GetContext(ctx, &maxCapacity, "SELECT max_capacity FROM events WHERE id=$1 FOR UPDATE", eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to register for event with id %d: %w", eventID, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return err
	}

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM attendees WHERE event_id=$1", eventID); err != nil {
		return err
	}
	if count >= maxCapacity {
		return fmt.Errorf("event %d is at capacity %d: %w", eventID, maxCapacity, storage.ErrCapacityExceeded)
	}

	if err := storage.ValidateAttendee(*a); err != nil {
		return err
	}

	a.EventID = eventID
	err = tx.GetContext(
		ctx,
		a,
		"INSERT INTO attendees(event_id, name, email) VALUES($1, $2, $3) RETURNING id, created_at, updated_at",
		eventID, a.Name, a.Email,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("email %q for event %d: %w", a.Email, eventID, storage.ErrDuplicateRegistration)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

func (s *Storage) GetAttendees(ctx context.Context, eventID int64, page storage.Page) ([]storage.Attendee, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM attendees WHERE event_id=$1", eventID); err != nil {
		return nil, 0, err
	}

	attendees := make([]storage.Attendee, 0)
	err := s.db.SelectContext(
		ctx,
		&attendees,
		"SELECT id, event_id, name, email, created_at, updated_at "+
			"FROM attendees WHERE event_id=$1 ORDER BY id LIMIT $2 OFFSET $3",
		eventID, page.Size, page.Offset(),
	)
	return attendees, total, err
}
