// File: /controllers/auth_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"grownet-api/models"
	"grownet-api/utils"
)

// UserStore is the subset of the user repository used for accounts.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	HandleTaken(ctx context.Context, handle string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error)
}

type WelcomeMailer interface {
	SendWelcomeEmail(email, name string) error
}

type AuthController struct {
	users     UserStore
	jwtSecret string
	mailer    WelcomeMailer
}

// NewAuthController builds the controller. mailer may be nil.
func NewAuthController(users UserStore, jwtSecret string, mailer WelcomeMailer) *AuthController {
	return &AuthController{
		users:     users,
		jwtSecret: jwtSecret,
		mailer:    mailer,
	}
}

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"role" binding:"required"`
	Handle   string      `json:"handle"` // Optional - will be generated if not provided
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.IsValidEmail(req.Email) {
		utils.SendValidationError(c, "Invalid email address")
		return
	}
	if !utils.IsValidPassword(req.Password) {
		utils.SendValidationError(c, "Password needs at least 6 characters and 3 of: upper case, lower case, digit, symbol")
		return
	}
	// Admins are provisioned out of band.
	if req.Role != models.RoleMentor && req.Role != models.RoleMentee {
		utils.SendValidationError(c, "Role must be mentor or mentee")
		return
	}

	if _, err := ac.users.FindByEmail(ctx, req.Email); err == nil {
		utils.SendError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondServiceError(c, err, "Failed to register")
		return
	}

	handle := req.Handle
	if handle == "" {
		generated, err := ac.generateUniqueHandle(ctx, req.Name)
		if err != nil {
			respondServiceError(c, err, "Failed to register")
			return
		}
		handle = generated
	} else {
		if !utils.IsValidHandle(handle) {
			utils.SendValidationError(c, "Handle must be 3-50 lowercase letters, digits or underscores")
			return
		}
		taken, err := ac.users.HandleTaken(ctx, handle)
		if err != nil {
			respondServiceError(c, err, "Failed to register")
			return
		}
		if taken {
			utils.SendError(c, http.StatusConflict, "Handle already taken")
			return
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondServiceError(c, err, "Failed to hash password")
		return
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Name:     strings.TrimSpace(req.Name),
		Handle:   handle,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     req.Role,
	}
	if err := ac.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendError(c, http.StatusConflict, "Email or handle already registered")
			return
		}
		respondServiceError(c, err, "Failed to create user")
		return
	}

	if ac.mailer != nil {
		go func(email, name string) {
			if err := ac.mailer.SendWelcomeEmail(email, name); err != nil {
				log.Printf("Failed to send welcome email: %v", err)
			}
		}(user.Email, user.Name)
	}

	ac.respondWithToken(c, http.StatusCreated, user)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	user, err := ac.users.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondServiceError(c, err, "Failed to log in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	ac.respondWithToken(c, http.StatusOK, user)
}

func (ac *AuthController) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := utils.GenerateToken(ac.jwtSecret, user.ID, user.Role, time.Now())
	if err != nil {
		respondServiceError(c, err, "Failed to generate token")
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: user})
}

func (ac *AuthController) generateUniqueHandle(ctx context.Context, baseName string) (string, error) {
	baseHandle := models.GenerateHandleFromName(baseName)
	if len(baseHandle) < 3 {
		baseHandle = "member"
	}
	handle := baseHandle

	for counter := 1; ; counter++ {
		taken, err := ac.users.HandleTaken(ctx, handle)
		if err != nil {
			return "", err
		}
		if !taken {
			return handle, nil
		}
		// Handle exists, try with number suffix
		handle = fmt.Sprintf("%s_%d", baseHandle, counter)
	}
}
