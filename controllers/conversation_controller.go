package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"grownet-api/models"
	"grownet-api/services"
	"grownet-api/utils"
)

type ConversationController struct {
	conversations *services.ConversationService
}

func NewConversationController(conversations *services.ConversationService) *ConversationController {
	return &ConversationController{conversations: conversations}
}

func (cc *ConversationController) GetConversations(c *gin.Context) {
	userID := c.GetString("user_id")

	convs, err := cc.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs, "total": len(convs)})
}

func (cc *ConversationController) GetConversation(c *gin.Context) {
	userID := c.GetString("user_id")

	conv, err := cc.conversations.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch conversation")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// GetMessages pages with ?before=<RFC3339>&limit=<n>.
func (cc *ConversationController) GetMessages(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			utils.SendValidationError(c, "before must be an RFC3339 timestamp")
			return
		}
		before = &t
	}

	msgs, err := cc.conversations.ListMessages(c.Request.Context(), userID, c.Param("id"), before, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (cc *ConversationController) SendMessage(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	msg, err := cc.conversations.SendMessage(c.Request.Context(), userID, c.Param("id"), req.Body)
	if err != nil {
		respondServiceError(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}
