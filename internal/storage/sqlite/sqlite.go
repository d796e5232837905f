package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/storage"
)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type roomModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string
	Creator   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type memberModel struct {
	ID       uint   `gorm:"primaryKey"`
	RoomID   string `gorm:"uniqueIndex:idx_room_member"`
	Username string `gorm:"uniqueIndex:idx_room_member"`
}

func (roomModel) TableName() string   { return "rooms" }
func (memberModel) TableName() string { return "room_members" }

// NewStore opens a SQLite database at the provided path.
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&roomModel{}, &memberModel{})
}

// CreateRoom stores a new room record along with its initial member set.
func (s *Store) CreateRoom(ctx context.Context, room *storage.Room) error {
	if room == nil {
		return errors.New("nil room")
	}
	model := roomModel{
		ID:        room.ID,
		Name:      room.Name,
		Creator:   room.Creator,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, username := range room.Members {
			member := memberModel{RoomID: room.ID, Username: username}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRoom retrieves a room and its member name set by id.
func (s *Store) GetRoom(ctx context.Context, id string) (*storage.Room, error) {
	var model roomModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var members []memberModel
	if err := s.db.WithContext(ctx).Where("room_id = ?", id).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}

	room := toRoom(model, members)
	return &room, nil
}

// AddMember appends a username to the room's persisted membership set. Adding
// a name that is already present is a no-op, not an error.
func (s *Store) AddMember(ctx context.Context, roomID, username string) (*storage.Room, error) {
	var model roomModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	member := memberModel{RoomID: roomID, Username: username}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
	if err != nil {
		return nil, err
	}

	return s.GetRoom(ctx, roomID)
}

// ListRooms returns every room with its member name set.
func (s *Store) ListRooms(ctx context.Context) ([]storage.Room, error) {
	var models []roomModel
	if err := s.db.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []storage.Room{}, nil
	}

	ids := lo.Map(models, func(m roomModel, _ int) string { return m.ID })

	var members []memberModel
	if err := s.db.WithContext(ctx).Where("room_id IN ?", ids).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	byRoom := lo.GroupBy(members, func(m memberModel) string { return m.RoomID })

	rooms := make([]storage.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toRoom(model, byRoom[model.ID]))
	}
	return rooms, nil
}

func toRoom(model roomModel, members []memberModel) storage.Room {
	return storage.Room{
		ID:        model.ID,
		Name:      model.Name,
		Creator:   model.Creator,
		Members:   lo.Map(members, func(m memberModel, _ int) string { return m.Username }),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
