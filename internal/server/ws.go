package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// anonymousName is used when a client connects without identifying itself.
const anonymousName = "anonymous"

// handleWS validates the room id and display name, upgrades the connection,
// and hands it to a session controller which owns it until closed.
func (a *App) handleWS(c *gin.Context) {
	roomID, ok := resolveRoom(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	username := resolveIdentity(c)

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.Printf("websocket upgrade remote=%s err=%v", c.Request.RemoteAddr, err)
		return
	}

	OpenSession(c.Request.Context(), a.hub, newWSConn(conn, a.cfg), roomID, username, a.cfg)
}

// resolveRoom parses the room id from the query string. Malformed ids are the
// client's error and are rejected before the upgrade.
func resolveRoom(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Query("room")))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// resolveIdentity extracts the display name, defaulting to a placeholder.
func resolveIdentity(c *gin.Context) string {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		return anonymousName
	}
	return username
}
