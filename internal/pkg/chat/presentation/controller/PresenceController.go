package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OnlineChecker reports live presence.
type OnlineChecker interface {
	IsOnline(userID string) bool
}

// PresenceController answers whether a user has a live connection on this node.
type PresenceController struct {
	presence OnlineChecker
}

func NewPresenceController(presence OnlineChecker) *PresenceController {
	return &PresenceController{presence: presence}
}

func (h *PresenceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "online": h.presence.IsOnline(userID)})
	}
}
