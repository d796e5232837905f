package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Room represents a persisted room record. Members is the persisted membership
// name set; it is independent of the live connections currently joined to the
// room and the two are never reconciled.
type Room struct {
	ID        string
	Name      string
	Creator   string
	Members   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines persistence operations used by the server.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id string) (*Room, error)
	AddMember(ctx context.Context, roomID, username string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}
