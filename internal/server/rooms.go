package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/roomcast/roomcast/internal/storage"
)

type createRoomRequest struct {
	Name    string `json:"name" binding:"required"`
	Creator string `json:"creator" binding:"required"`
}

type addMemberRequest struct {
	Username string `json:"username" binding:"required"`
}

type roomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func toRoomResponse(room storage.Room) roomResponse {
	return roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Creator:   room.Creator,
		Members:   room.Members,
		CreatedAt: room.CreatedAt,
	}
}

func (a *App) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and creator are required"})
		return
	}

	now := time.Now().UTC()
	room := &storage.Room{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Creator: req.Creator,
		// The creator is always a member at creation.
		Members:   []string{req.Creator},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateRoom(c.Request.Context(), room); err != nil {
		log.Printf("create room name=%s err=%v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	log.Printf("room created id=%s name=%s creator=%s", room.ID, room.Name, room.Creator)
	c.JSON(http.StatusCreated, toRoomResponse(*room))
}

func (a *App) handleAddMember(c *gin.Context) {
	// An unparseable id is the client's error; it is never coerced into some
	// zero-value room.
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	room, err := a.store.AddMember(c.Request.Context(), roomID.String(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Printf("add member room=%s user=%s err=%v", roomID, req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}

	c.JSON(http.StatusOK, toRoomResponse(*room))
}

func (a *App) handleListRooms(c *gin.Context) {
	rooms, err := a.store.ListRooms(c.Request.Context())
	if err != nil {
		log.Printf("list rooms err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rooms"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(rooms, func(room storage.Room, _ int) roomResponse {
		return toRoomResponse(room)
	}))
}
