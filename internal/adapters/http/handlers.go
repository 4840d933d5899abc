package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/app"
)

type Handlers struct {
	Orch *app.Orchestrator
}

type CreateRoomRequest struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

func (h *Handlers) Health(c *gin.Context) {
	count, err := h.Orch.Store.CountRooms(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("count rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"rooms":     count,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListRooms serves the same summaries as the get-rooms event, for clients
// that have not opened a websocket yet.
func (h *Handlers) ListRooms(c *gin.Context) {
	summaries, err := h.Orch.Rooms.Summaries(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list rooms"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// CreateRoom creates a room over REST. Connected clients still receive the
// room-created broadcast.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}

	room, err := h.Orch.CreateRoom(c.Request.Context(), req.Name, req.Topic)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, room)
}
