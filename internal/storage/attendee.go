package storage

import (
	"time"
)

type Attendee struct {
	ID        int64     `db:"id"`
	EventID   int64     `db:"event_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
