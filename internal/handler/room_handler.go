package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/service"
)

// RoomHandler serves read-only REST views of live room state and the chat
// backlog, so a page can render before its WebSocket events start flowing.
type RoomHandler struct {
	presence     *service.PresenceManager
	chat         *service.ChatService
	calls        *service.CallCoordinator
	historyLimit int
}

func NewRoomHandler(presence *service.PresenceManager, chat *service.ChatService, calls *service.CallCoordinator, historyLimit int) *RoomHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &RoomHandler{presence: presence, chat: chat, calls: calls, historyLimit: historyLimit}
}

// GetOnline godoc
// GET /rooms/:id/online
func (h *RoomHandler) GetOnline(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id required"})
		return
	}
	c.JSON(http.StatusOK, model.RoomOnlineResponse{
		RoomID:  roomID,
		Members: h.presence.Online(roomID),
	})
}

// GetMessages godoc
// GET /rooms/:id/messages?limit=n
func (h *RoomHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id required"})
		return
	}
	limit := h.historyLimit
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= h.historyLimit {
			limit = n
		}
	}
	msgs, err := h.chat.History(roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, model.RoomMessagesResponse{RoomID: roomID, Messages: msgs})
}

// GetCallParticipants godoc
// GET /calls/:id/participants
func (h *RoomHandler) GetCallParticipants(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id required"})
		return
	}
	participants := h.calls.Participants(roomID)
	if participants == nil {
		participants = []model.CallParticipant{}
	}
	c.JSON(http.StatusOK, model.CallParticipantsResponse{
		RoomID:       roomID,
		Participants: participants,
	})
}
