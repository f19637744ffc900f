package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"roomchat/internal/core"
)

// RoomHandlers provides the room allocation endpoint.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{hub: hub, log: logger}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID string `json:"id"`
}

// CreateRoom mints a fresh room id. The room itself materializes when the
// first client subscribes to it.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	id := h.hub.NewRoomID()
	h.log.Info().Str("room", id).Msg("room id allocated")
	c.JSON(http.StatusCreated, RoomResponse{ID: id})
}
