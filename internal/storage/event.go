package storage

import (
	"time"
)

type Event struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Location    string    `db:"location"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	MaxCapacity int       `db:"max_capacity"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
