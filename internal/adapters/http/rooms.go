package http

import (
	"net/http"

	"github.com/dkeye/Attend/internal/app"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/dkeye/Attend/internal/idgen"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type RoomHandlers struct {
	Rooms *app.RoomTable
}

type RoomsResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

type CreateRoomResponse struct {
	Room domain.RoomID `json:"room"`
}

func (h *RoomHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, RoomsResponse{Rooms: h.Rooms.List()})
}

func (h *RoomHandlers) Get(c *gin.Context) {
	id, err := domain.NewRoomID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, ok := h.Rooms.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, room)
}

// Create hands out a fresh room code. The room itself only exists once a
// member joins it.
func (h *RoomHandlers) Create(c *gin.Context) {
	id, err := idgen.NewRoomID()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusCreated, CreateRoomResponse{Room: id})
}
