package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"aiinspire/content"
	"aiinspire/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type AIPlatformRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Slug        string `json:"slug" binding:"required,max=64"`
	Website     string `json:"website" binding:"omitempty,url"`
	Icon        string `json:"icon" binding:"max=512"`
	Description string `json:"description" binding:"max=2000"`
	SortOrder   int    `json:"sortOrder"`
	Enabled     *bool  `json:"enabled"`
}

func (r *AIPlatformRequest) apply(p *models.AIPlatform) bool {
	p.Name = content.Plain(r.Name)
	p.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	p.Website = r.Website
	p.Icon = strings.TrimSpace(r.Icon)
	p.Description = content.Plain(r.Description)
	p.SortOrder = r.SortOrder
	if r.Enabled != nil {
		p.Enabled = *r.Enabled
	}
	return p.Name != "" && slugPattern.MatchString(p.Slug)
}

func (h *Handler) ListAIPlatforms(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	all := c.Query("all") == "true"
	if u := currentUser(c); all && (u == nil || !u.IsAdmin()) {
		all = false
	}
	platforms, err := h.Store.ListAIPlatforms(ctx, !all)
	if err != nil {
		h.storeError(c, err, "platforms")
		return
	}
	if platforms == nil {
		platforms = []models.AIPlatform{}
	}
	c.JSON(http.StatusOK, gin.H{"items": platforms})
}

func (h *Handler) GetAIPlatform(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	var (
		p   *models.AIPlatform
		err error
	)
	if id, perr := primitive.ObjectIDFromHex(c.Param("id")); perr == nil {
		p, err = h.Store.GetAIPlatform(ctx, id)
	} else {
		p, err = h.Store.FindAIPlatformBySlug(ctx, c.Param("id"))
	}
	if err != nil {
		h.storeError(c, err, "platform")
		return
	}
	if !p.Enabled {
		if u := currentUser(c); u == nil || !u.IsAdmin() {
			c.JSON(http.StatusNotFound, gin.H{"error": "platform not found"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"platform": p})
}

func (h *Handler) CreateAIPlatform(c *gin.Context) {
	var req AIPlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	now := h.now()
	p := &models.AIPlatform{Enabled: true, CreatedAt: now, UpdatedAt: now}
	if !req.apply(p) {
		badRequest(c, "name is required and slug must be lowercase letters, digits and dashes")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreateAIPlatform(ctx, p); err != nil {
		h.storeError(c, err, "platform")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"platform": p})
}

func (h *Handler) UpdateAIPlatform(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AIPlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Store.GetAIPlatform(ctx, id)
	if err != nil {
		h.storeError(c, err, "platform")
		return
	}
	if !req.apply(p) {
		badRequest(c, "name is required and slug must be lowercase letters, digits and dashes")
		return
	}
	p.UpdatedAt = h.now()
	if err := h.Store.SaveAIPlatform(ctx, p); err != nil {
		h.storeError(c, err, "platform")
		return
	}
	c.JSON(http.StatusOK, gin.H{"platform": p})
}

func (h *Handler) DeleteAIPlatform(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	posts, err := h.Store.CountPostsByPlatform(ctx, id)
	if err != nil {
		h.storeError(c, err, "platform")
		return
	}
	screenings, err := h.Store.CountScreeningsByPlatform(ctx, id)
	if err != nil {
		h.storeError(c, err, "platform")
		return
	}
	if posts > 0 || screenings > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "platform is still referenced", "posts": posts, "screenings": screenings})
		return
	}
	if err := h.Store.DeleteAIPlatform(ctx, id); err != nil {
		h.storeError(c, err, "platform")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "platform deleted"})
}
