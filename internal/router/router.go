package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/handler"
	"github.com/wovlf02/Cooperate-Up-sub001/pkg/constants"
)

// New builds the HTTP router.
func New(
	gateway *handler.Gateway,
	rooms *handler.RoomHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST: live room state + chat backlog
	roomGroup := r.Group("/rooms")
	{
		roomGroup.GET("/:id/online", rooms.GetOnline)
		roomGroup.GET("/:id/messages", rooms.GetMessages)
	}
	r.GET("/calls/:id/participants", rooms.GetCallParticipants)

	// WebSocket: /ws?token=<jwt>
	r.GET(constants.PathWS, gateway.ServeWS)

	return r
}
