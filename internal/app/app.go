package app

import (
	"context"

	"github.com/eventbook/eventbook/internal/storage"
)

type App struct {
	Storage storage.Storage
}

func New(storage storage.Storage) *App {
	return &App{Storage: storage}
}

func (a *App) CreateEvent(ctx context.Context, e storage.Event) (storage.Event, error) {
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, err
	}
	return e, nil
}

func (a *App) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) ListUpcomingEvents(ctx context.Context, page storage.Page) ([]storage.Event, int, error) {
	return a.Storage.GetUpcomingEvents(ctx, page)
}

func (a *App) UpdateEvent(ctx context.Context, id int64, e storage.Event) error {
	return a.Storage.UpdateEvent(ctx, id, e)
}

func (a *App) RegisterAttendee(ctx context.Context, eventID int64, attendee storage.Attendee) (storage.Attendee, error) {
	if err := a.Storage.RegisterAttendee(ctx, eventID, &attendee); err != nil {
		return storage.Attendee{}, err
	}
	return attendee, nil
}

func (a *App) ListAttendees(ctx context.Context, eventID int64, page storage.Page) ([]storage.Attendee, int, error) {
	return a.Storage.GetAttendees(ctx, eventID, page)
}
