package handlers

import (
	"net/http"
	"strings"

	"aiinspire/models"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetUser returns a public profile.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Store.GetUser(ctx, id)
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": u.Public(),
		"bio":  u.Bio,
	})
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	users, total, err := h.Store.ListUsers(ctx, strings.TrimSpace(c.Query("q")), p)
	if err != nil {
		h.storeError(c, err, "users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, newList(users, total, p))
}

type AdminUpdateUserRequest struct {
	Role                *models.Role `json:"role"`
	Disabled            *bool        `json:"disabled"`
	MembershipLevel     *string      `json:"membershipLevel"`
	MembershipExpiresAt *int64       `json:"membershipExpiresAt" binding:"omitempty,min=0"`
}

func (h *Handler) AdminUpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		badRequest(c, "invalid role")
		return
	}
	self := currentUser(c)
	if id == self.ID && ((req.Disabled != nil && *req.Disabled) || (req.Role != nil && *req.Role != models.RoleAdmin)) {
		badRequest(c, "admins cannot disable or demote themselves")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Store.UpdateUser(ctx, id, store.UserUpdate{
		Role:                req.Role,
		Disabled:            req.Disabled,
		MembershipLevel:     req.MembershipLevel,
		MembershipExpiresAt: req.MembershipExpiresAt,
	}, h.now())
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	h.Log.Info("admin updated user",
		zap.String("adminId", self.ID.Hex()),
		zap.String("userId", id.Hex()),
	)
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) AdminStats(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := h.Store.Stats(ctx, h.now())
	if err != nil {
		h.storeError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
