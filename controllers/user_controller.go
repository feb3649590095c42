// File: /controllers/user_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grownet-api/models"
	"grownet-api/services"
	"grownet-api/utils"
)

type UserController struct {
	users UserStore
}

func NewUserController(users UserStore) *UserController {
	return &UserController{users: users}
}

// GetProfile returns the caller's full account.
func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := uc.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		uc.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser returns another member's public profile.
func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		uc.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Summary())
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Name     *string  `json:"name"`
		Headline *string  `json:"headline"`
		Avatar   *string  `json:"avatar"`
		Skills   []string `json:"skills"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			utils.SendValidationError(c, "Name cannot be empty")
			return
		}
		updates["name"] = name
	}
	if req.Headline != nil {
		updates["headline"] = strings.TrimSpace(*req.Headline)
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Skills != nil {
		updates["skills"] = models.StringSliceType(req.Skills)
	}

	user, err := uc.users.UpdateProfile(c.Request.Context(), userID, updates)
	if err != nil {
		uc.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (uc *UserController) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = services.ErrUserNotFound
	}
	respondServiceError(c, err, "Failed to load user")
}
