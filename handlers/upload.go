package handlers

import (
	"errors"
	"net/http"
	"strings"

	"aiinspire/metrics"
	"aiinspire/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) Upload(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	limits, err := upload.Limits(ctx, h.Store)
	if err != nil {
		h.storeError(c, err, "upload limits")
		return
	}
	// Leave room for the multipart envelope around the largest allowed file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxBytes()+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		badRequest(c, "multipart field \"file\" is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()

	backend, err := h.Uploads.Backend(ctx)
	if err != nil {
		h.Log.Error("resolve storage backend", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage is not configured"})
		return
	}

	res, err := upload.Store(ctx, backend, f, fh.Filename, fh.Size, limits)
	switch {
	case errors.Is(err, upload.ErrTypeNotAllowed):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	case errors.Is(err, upload.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.Log.Error("store upload", zap.String("backend", backend.Name()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	metrics.Uploads.WithLabelValues(res.Backend, res.Kind).Inc()
	h.Log.Info("file uploaded",
		zap.String("userId", currentUser(c).ID.Hex()),
		zap.String("backend", res.Backend),
		zap.String("kind", res.Kind),
		zap.Int64("size", res.Size),
	)
	c.JSON(http.StatusCreated, res)
}
