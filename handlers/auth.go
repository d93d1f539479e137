package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"aiinspire/content"
	"aiinspire/models"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) issue(c *gin.Context, status int, u *models.User) {
	token, err := h.Tokens.Issue(u, time.Unix(h.now(), 0))
	if err != nil {
		h.Log.Error("sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(status, authResponse{Token: token, User: u})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	username := content.Plain(req.Username)
	if username == "" || strings.ContainsAny(username, "@ \t") {
		badRequest(c, "username may not contain spaces or @")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	site, err := h.siteSettings(ctx)
	if err != nil {
		h.storeError(c, err, "settings")
		return
	}
	if !site.RegistrationOpen {
		c.JSON(http.StatusForbidden, gin.H{"error": "registration is closed"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	now := h.now()
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     username,
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
		Nickname:     username,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "email or username already in use"})
			return
		}
		h.storeError(c, err, "user")
		return
	}

	h.Log.Info("user registered", zap.String("userId", user.ID.Hex()))
	h.issue(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Store.FindUserByAccount(ctx, strings.TrimSpace(req.Account))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid account or password"})
		return
	}
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid account or password"})
		return
	}
	if user.Disabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
		return
	}

	now := h.now()
	if updated, err := h.Store.UpdateUser(ctx, user.ID, store.UserUpdate{LastLoginAt: &now}, now); err != nil {
		h.Log.Warn("record login", zap.String("userId", user.ID.Hex()), zap.Error(err))
	} else {
		user = updated
	}
	h.issue(c, http.StatusOK, user)
}

func (h *Handler) GetMe(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": u, "membership": u.Membership(h.now())})
}

type UpdateMeRequest struct {
	Nickname *string `json:"nickname" binding:"omitempty,max=32"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=512"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	upd := store.UserUpdate{}
	if req.Nickname != nil {
		v := content.Plain(*req.Nickname)
		upd.Nickname = &v
	}
	if req.Avatar != nil {
		v := strings.TrimSpace(*req.Avatar)
		upd.Avatar = &v
	}
	if req.Bio != nil {
		v := content.Plain(*req.Bio)
		upd.Bio = &v
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Store.UpdateUser(ctx, currentUser(c).ID, upd, h.now())
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u := currentUser(c)
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "old password is incorrect"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	v := string(hashed)
	if _, err := h.Store.UpdateUser(ctx, u.ID, store.UserUpdate{PasswordHash: &v}, h.now()); err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
