package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadLimits_Classify(t *testing.T) {
	l := DefaultUploadLimits()

	kind, max, ok := l.Classify("image/png")
	assert.True(t, ok)
	assert.Equal(t, MediaImage, kind)
	assert.Equal(t, int64(10<<20), max)

	kind, max, ok = l.Classify("video/mp4; codecs=avc1")
	assert.True(t, ok)
	assert.Equal(t, MediaVideo, kind)
	assert.Equal(t, int64(200<<20), max)

	_, _, ok = l.Classify("application/pdf")
	assert.False(t, ok)

	assert.Equal(t, int64(200<<20), l.MaxBytes())
}

func TestStorageConfig(t *testing.T) {
	assert.NoError(t, StorageConfig{Provider: StorageLocal}.Validate())
	assert.Error(t, StorageConfig{Provider: StorageCloudinary, CloudName: "demo"}.Validate())
	assert.Error(t, StorageConfig{Provider: "s3"}.Validate())

	c := StorageConfig{Provider: StorageCloudinary, CloudName: "demo", APIKey: "k", APISecret: "s"}
	assert.NoError(t, c.Validate())

	red := c.Redacted()
	assert.Equal(t, RedactedSecret, red.APISecret)
	assert.Equal(t, "s", c.APISecret)

	assert.Equal(t, "s", red.MergeSecret(c).APISecret)

	changed := red
	changed.APISecret = "new"
	assert.Equal(t, "new", changed.MergeSecret(c).APISecret)
}

func TestValidSettingKey(t *testing.T) {
	assert.True(t, ValidSettingKey(SettingStorage))
	assert.False(t, ValidSettingKey("payment"))
}
