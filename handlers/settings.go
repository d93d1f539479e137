package handlers

import (
	"context"
	"errors"
	"net/http"

	"aiinspire/content"
	"aiinspire/models"
	"aiinspire/store"
	"aiinspire/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// loadSetting decodes key into out, leaving out untouched when nothing is stored.
func (h *Handler) loadSetting(ctx context.Context, key string, out interface{}) error {
	err := h.Store.GetSetting(ctx, key, out)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (h *Handler) siteSettings(ctx context.Context) (models.SiteSettings, error) {
	site := models.DefaultSiteSettings()
	return site, h.loadSetting(ctx, models.SettingSite, &site)
}

func (h *Handler) storageSettings(ctx context.Context) (models.StorageConfig, error) {
	cfg := models.StorageConfig{Provider: models.StorageLocal}
	return cfg, h.loadSetting(ctx, models.SettingStorage, &cfg)
}

func (h *Handler) PublicSettings(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	site, err := h.siteSettings(ctx)
	if err != nil {
		h.storeError(c, err, "settings")
		return
	}
	limits, err := upload.Limits(ctx, h.Store)
	if err != nil {
		h.storeError(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": site, "uploadLimits": limits})
}

func (h *Handler) AdminGetSetting(c *gin.Context) {
	key := c.Param("key")
	if !models.ValidSettingKey(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	var (
		value interface{}
		err   error
	)
	switch key {
	case models.SettingSite:
		value, err = h.siteSettings(ctx)
	case models.SettingUploadLimits:
		value, err = upload.Limits(ctx, h.Store)
	case models.SettingStorage:
		var cfg models.StorageConfig
		cfg, err = h.storageSettings(ctx)
		value = cfg.Redacted()
	}
	if err != nil {
		h.storeError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (h *Handler) AdminPutSetting(c *gin.Context) {
	key := c.Param("key")
	if !models.ValidSettingKey(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	var value interface{}
	switch key {
	case models.SettingSite:
		var site models.SiteSettings
		if err := c.ShouldBindJSON(&site); err != nil {
			badRequest(c, err.Error())
			return
		}
		site.SiteName = content.Plain(site.SiteName)
		if site.SiteName == "" {
			badRequest(c, "siteName is required")
			return
		}
		site.Announcement = content.Plain(site.Announcement)
		value = site

	case models.SettingUploadLimits:
		var limits models.UploadLimits
		if err := c.ShouldBindJSON(&limits); err != nil {
			badRequest(c, err.Error())
			return
		}
		if len(limits.ImageTypes) == 0 && len(limits.VideoTypes) == 0 {
			badRequest(c, "at least one allowed type is required")
			return
		}
		if limits.ImageTypes == nil {
			limits.ImageTypes = []string{}
		}
		if limits.VideoTypes == nil {
			limits.VideoTypes = []string{}
		}
		value = limits

	case models.SettingStorage:
		var cfg models.StorageConfig
		if err := c.ShouldBindJSON(&cfg); err != nil {
			badRequest(c, err.Error())
			return
		}
		prev, err := h.storageSettings(ctx)
		if err != nil {
			h.storeError(c, err, "setting")
			return
		}
		cfg = cfg.MergeSecret(prev)
		if err := cfg.Validate(); err != nil {
			badRequest(c, err.Error())
			return
		}
		value = cfg
	}

	if err := h.Store.PutSetting(ctx, key, value, h.now()); err != nil {
		h.storeError(c, err, "setting")
		return
	}
	h.Log.Info("setting updated", zap.String("key", key), zap.String("adminId", currentUser(c).ID.Hex()))

	if cfg, ok := value.(models.StorageConfig); ok {
		value = cfg.Redacted()
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}
