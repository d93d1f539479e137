package handlers

import (
	"net/http"
	"strings"

	"aiinspire/content"
	"aiinspire/models"

	"github.com/gin-gonic/gin"
)

type SocialMediaRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	Icon      string `json:"icon" binding:"max=512"`
	URL       string `json:"url" binding:"omitempty,url"`
	QRCode    string `json:"qrCode" binding:"max=512"`
	SortOrder int    `json:"sortOrder"`
	Enabled   *bool  `json:"enabled"`
}

func (r *SocialMediaRequest) apply(m *models.SocialMedia) bool {
	m.Name = content.Plain(r.Name)
	m.Icon = strings.TrimSpace(r.Icon)
	m.URL = strings.TrimSpace(r.URL)
	m.QRCode = strings.TrimSpace(r.QRCode)
	m.SortOrder = r.SortOrder
	if r.Enabled != nil {
		m.Enabled = *r.Enabled
	}
	return m.Name != "" && (m.URL != "" || m.QRCode != "")
}

func (h *Handler) ListSocialMedia(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, err := h.Store.ListSocialMedia(ctx, !(c.Query("all") == "true" && isAdmin(c)))
	if err != nil {
		h.storeError(c, err, "social media")
		return
	}
	if items == nil {
		items = []models.SocialMedia{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) CreateSocialMedia(c *gin.Context) {
	var req SocialMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	now := h.now()
	m := &models.SocialMedia{Enabled: true, CreatedAt: now, UpdatedAt: now}
	if !req.apply(m) {
		badRequest(c, "name and either url or qrCode are required")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreateSocialMedia(ctx, m); err != nil {
		h.storeError(c, err, "social media link")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"socialMedia": m})
}

func (h *Handler) UpdateSocialMedia(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SocialMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.Store.GetSocialMedia(ctx, id)
	if err != nil {
		h.storeError(c, err, "social media link")
		return
	}
	if !req.apply(m) {
		badRequest(c, "name and either url or qrCode are required")
		return
	}
	m.UpdatedAt = h.now()
	if err := h.Store.SaveSocialMedia(ctx, m); err != nil {
		h.storeError(c, err, "social media link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"socialMedia": m})
}

func (h *Handler) DeleteSocialMedia(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.DeleteSocialMedia(ctx, id); err != nil {
		h.storeError(c, err, "social media link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "social media link deleted"})
}
