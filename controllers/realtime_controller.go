package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"grownet-api/realtime"
	"grownet-api/utils"
)

type RealtimeController struct {
	registry  *realtime.PresenceRegistry
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewRealtimeController accepts upgrades from allowedOrigins. Requests
// without an Origin header (non-browser clients) are always accepted.
func NewRealtimeController(registry *realtime.PresenceRegistry, jwtSecret string, allowedOrigins []string) *RealtimeController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &RealtimeController{
		registry:  registry,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Connect upgrades GET /ws?token=<jwt>. Browsers cannot set headers on a
// websocket handshake, so the token travels in the query string.
func (rc *RealtimeController) Connect(c *gin.Context) {
	claims, err := utils.ParseToken(rc.jwtSecret, c.Query("token"))
	if err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed for %s: %v", claims.UserID, err)
		return
	}

	client := realtime.NewClient(rc.registry, claims.UserID, conn)
	if rc.registry.Register(client) {
		log.Printf("User %s is online", client.UserID())
	}
	client.Serve()
}
