package models

import (
	"errors"
	"strings"
)

// Setting keys in the settings collection.
const (
	SettingSite         = "site"
	SettingUploadLimits = "upload_limits"
	SettingStorage      = "storage"
)

var SettingKeys = []string{SettingSite, SettingUploadLimits, SettingStorage}

func ValidSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

type SiteSettings struct {
	SiteName         string `bson:"siteName" json:"siteName"`
	Announcement     string `bson:"announcement" json:"announcement"`
	RegistrationOpen bool   `bson:"registrationOpen" json:"registrationOpen"`
}

func DefaultSiteSettings() SiteSettings {
	return SiteSettings{SiteName: "AI灵感社", RegistrationOpen: true}
}

type UploadLimits struct {
	MaxImageMB int64    `bson:"maxImageMB" json:"maxImageMB" binding:"min=1"`
	MaxVideoMB int64    `bson:"maxVideoMB" json:"maxVideoMB" binding:"min=1"`
	ImageTypes []string `bson:"imageTypes" json:"imageTypes"`
	VideoTypes []string `bson:"videoTypes" json:"videoTypes"`
}

func DefaultUploadLimits() UploadLimits {
	return UploadLimits{
		MaxImageMB: 10,
		MaxVideoMB: 200,
		ImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		VideoTypes: []string{"video/mp4", "video/webm", "video/quicktime"},
	}
}

// Classify maps a sniffed content type to a media kind and its byte limit.
// ok is false when the type is in neither allow-list.
func (l UploadLimits) Classify(contentType string) (kind string, maxBytes int64, ok bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, t := range l.ImageTypes {
		if strings.EqualFold(t, ct) {
			return MediaImage, l.MaxImageMB << 20, true
		}
	}
	for _, t := range l.VideoTypes {
		if strings.EqualFold(t, ct) {
			return MediaVideo, l.MaxVideoMB << 20, true
		}
	}
	return "", 0, false
}

// MaxBytes is the largest upload any kind allows.
func (l UploadLimits) MaxBytes() int64 {
	if l.MaxVideoMB > l.MaxImageMB {
		return l.MaxVideoMB << 20
	}
	return l.MaxImageMB << 20
}

type StorageProvider string

const (
	StorageLocal      StorageProvider = "local"
	StorageCloudinary StorageProvider = "cloudinary"
)

// RedactedSecret replaces secrets in admin responses. Writing it back keeps the stored value.
const RedactedSecret = "******"

type StorageConfig struct {
	Provider      StorageProvider `bson:"provider" json:"provider"`
	LocalDir      string          `bson:"localDir" json:"localDir"`
	PublicBaseURL string          `bson:"publicBaseUrl" json:"publicBaseUrl"`
	CloudName     string          `bson:"cloudName" json:"cloudName"`
	APIKey        string          `bson:"apiKey" json:"apiKey"`
	APISecret     string          `bson:"apiSecret" json:"apiSecret"`
	Folder        string          `bson:"folder" json:"folder"`
}

func (c StorageConfig) Validate() error {
	switch c.Provider {
	case StorageLocal:
		return nil
	case StorageCloudinary:
		if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
			return errors.New("cloudinary storage requires cloudName, apiKey and apiSecret")
		}
		return nil
	}
	return errors.New("unknown storage provider")
}

func (c StorageConfig) Redacted() StorageConfig {
	if c.APISecret != "" {
		c.APISecret = RedactedSecret
	}
	return c
}

// MergeSecret keeps the previously stored secret when the update carries the redaction marker.
func (c StorageConfig) MergeSecret(prev StorageConfig) StorageConfig {
	if c.APISecret == RedactedSecret {
		c.APISecret = prev.APISecret
	}
	return c
}
