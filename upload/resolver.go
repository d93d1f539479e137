package upload

import (
	"context"
	"errors"
	"fmt"

	"aiinspire/models"
	"aiinspire/store"
)

// Resolver builds the backend from the current storage setting so admin
// changes apply to the next upload.
type Resolver struct {
	Settings      store.Settings
	UploadDir     string
	PublicBaseURL string
	// CloudinaryURL is used when no storage setting has been saved.
	CloudinaryURL string
}

func (r *Resolver) localBackend(prefix, baseURL string) *Local {
	if baseURL == "" {
		baseURL = r.PublicBaseURL + "/uploads"
	}
	return &Local{Root: r.UploadDir, Prefix: prefix, BaseURL: baseURL}
}

func (r *Resolver) Backend(ctx context.Context) (Backend, error) {
	var cfg models.StorageConfig
	err := r.Settings.GetSetting(ctx, models.SettingStorage, &cfg)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if r.CloudinaryURL != "" {
			return NewCloudinaryFromURL(r.CloudinaryURL, "")
		}
		return r.localBackend("", ""), nil
	case err != nil:
		return nil, fmt.Errorf("load storage setting: %w", err)
	}

	switch cfg.Provider {
	case models.StorageCloudinary:
		return NewCloudinary(cfg.CloudName, cfg.APIKey, cfg.APISecret, cfg.Folder)
	case models.StorageLocal, "":
		return r.localBackend(cfg.LocalDir, cfg.PublicBaseURL), nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

// Limits returns the stored upload limits or the defaults.
func Limits(ctx context.Context, s store.Settings) (models.UploadLimits, error) {
	limits := models.DefaultUploadLimits()
	err := s.GetSetting(ctx, models.SettingUploadLimits, &limits)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return limits, err
	}
	return limits, nil
}
