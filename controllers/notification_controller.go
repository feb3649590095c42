// File: /controllers/notification_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grownet-api/models"
	"grownet-api/services"
)

type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// GetNotifications gets paginated notifications for the current user
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	notificationType := models.NotificationType(c.Query("type")) // Optional filter by type

	result, err := nc.notifications.List(c.Request.Context(), userID, notificationType, page, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetNotificationStats gets notification statistics (unread count, etc.)
func (nc *NotificationController) GetNotificationStats(c *gin.Context) {
	userID := c.GetString("user_id")

	stats, err := nc.notifications.Stats(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch notification stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := nc.notifications.MarkAsRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to mark notification as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	userID := c.GetString("user_id")

	updated, err := nc.notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to mark notifications as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := nc.notifications.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to delete notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
