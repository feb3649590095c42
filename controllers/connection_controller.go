package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grownet-api/services"
)

type ConnectionController struct {
	connections *services.ConnectionService
}

func NewConnectionController(connections *services.ConnectionService) *ConnectionController {
	return &ConnectionController{connections: connections}
}

// SendRequest either opens a pending request or, when the other user already
// asked first, completes the match. 201 for a new request, 200 for a match.
func (cc *ConnectionController) SendRequest(c *gin.Context) {
	userID := c.GetString("user_id")
	targetID := c.Param("user_id")

	result, err := cc.connections.SendRequest(c.Request.Context(), userID, targetID)
	if err != nil {
		respondServiceError(c, err, "Failed to send connection request")
		return
	}

	if result.Matched {
		c.JSON(http.StatusOK, gin.H{
			"message":      "It's a match! You are now connected",
			"matched":      true,
			"connection":   result.Connection,
			"conversation": result.Conversation,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Connection request sent",
		"matched":    false,
		"connection": result.Connection,
	})
}

func (cc *ConnectionController) AcceptRequest(c *gin.Context) {
	userID := c.GetString("user_id")

	result, err := cc.connections.AcceptRequest(c.Request.Context(), userID, c.Param("request_id"))
	if err != nil {
		respondServiceError(c, err, "Failed to accept connection request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Connection request accepted",
		"matched":      true,
		"connection":   result.Connection,
		"conversation": result.Conversation,
	})
}

func (cc *ConnectionController) RejectRequest(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := cc.connections.RejectRequest(c.Request.Context(), userID, c.Param("request_id")); err != nil {
		respondServiceError(c, err, "Failed to reject connection request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connection request rejected"})
}

func (cc *ConnectionController) RemoveFriend(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := cc.connections.RemoveFriend(c.Request.Context(), userID, c.Param("user_id")); err != nil {
		respondServiceError(c, err, "Failed to remove connection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connection removed"})
}

func (cc *ConnectionController) GetFriends(c *gin.Context) {
	userID := c.GetString("user_id")

	friends, err := cc.connections.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch connections")
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends, "total": len(friends)})
}

func (cc *ConnectionController) GetOnlineFriends(c *gin.Context) {
	userID := c.GetString("user_id")

	friends, err := cc.connections.OnlineFriends(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch online connections")
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends, "total": len(friends)})
}

func (cc *ConnectionController) GetPendingRequests(c *gin.Context) {
	userID := c.GetString("user_id")

	requests, err := cc.connections.ListPendingIncoming(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch connection requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

func (cc *ConnectionController) GetSentRequests(c *gin.Context) {
	userID := c.GetString("user_id")

	requests, err := cc.connections.ListPendingOutgoing(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch sent requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

func (cc *ConnectionController) GetStatus(c *gin.Context) {
	userID := c.GetString("user_id")

	status, err := cc.connections.Status(c.Request.Context(), userID, c.Param("user_id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch connection status")
		return
	}

	c.JSON(http.StatusOK, status)
}

func (cc *ConnectionController) OpenConversation(c *gin.Context) {
	userID := c.GetString("user_id")

	conv, err := cc.connections.OpenConversation(c.Request.Context(), userID, c.Param("user_id"))
	if err != nil {
		respondServiceError(c, err, "Failed to open conversation")
		return
	}

	c.JSON(http.StatusOK, conv)
}
