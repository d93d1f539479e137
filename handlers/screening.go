package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"aiinspire/content"
	"aiinspire/models"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ScreeningRequest struct {
	Title           string `json:"title" binding:"required,max=120"`
	Description     string `json:"description" binding:"max=5000"`
	VideoURL        string `json:"videoUrl" binding:"required,url"`
	CoverURL        string `json:"coverUrl" binding:"omitempty,url"`
	Creator         string `json:"creator" binding:"max=64"`
	DurationSeconds int    `json:"durationSeconds" binding:"min=0"`
	PlatformID      string `json:"platformId"`
	Published       bool   `json:"published"`
	SortOrder       int    `json:"sortOrder"`
}

func (r *ScreeningRequest) apply(s *models.Screening) bool {
	s.Title = content.Plain(r.Title)
	s.Description = content.Plain(r.Description)
	s.VideoURL = strings.TrimSpace(r.VideoURL)
	s.CoverURL = strings.TrimSpace(r.CoverURL)
	s.Creator = content.Plain(r.Creator)
	s.DurationSeconds = r.DurationSeconds
	s.Published = r.Published
	s.SortOrder = r.SortOrder
	s.PlatformID = nil
	if r.PlatformID != "" {
		id, err := primitive.ObjectIDFromHex(r.PlatformID)
		if err != nil {
			return false
		}
		s.PlatformID = &id
	}
	return s.Title != ""
}

// screeningPlatformExists answers 400 when s points at a missing platform.
func (h *Handler) screeningPlatformExists(ctx context.Context, c *gin.Context, s *models.Screening) bool {
	if s.PlatformID == nil {
		return true
	}
	if _, err := h.Store.GetAIPlatform(ctx, *s.PlatformID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			badRequest(c, "platform does not exist")
			return false
		}
		h.storeError(c, err, "platform")
		return false
	}
	return true
}

func isAdmin(c *gin.Context) bool {
	u := currentUser(c)
	return u != nil && u.IsAdmin()
}

func (h *Handler) ListScreenings(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	publishedOnly := !(c.Query("all") == "true" && isAdmin(c))

	ctx, cancel := h.ctx(c)
	defer cancel()

	items, total, err := h.Store.ListScreenings(ctx, publishedOnly, p)
	if err != nil {
		h.storeError(c, err, "screenings")
		return
	}
	if items == nil {
		items = []models.Screening{}
	}
	c.JSON(http.StatusOK, newList(items, total, p))
}

// visibleScreening loads :id and hides unpublished screenings from non-admins.
func (h *Handler) visibleScreening(c *gin.Context, param string) (*models.Screening, bool) {
	id, ok := idParam(c, param)
	if !ok {
		return nil, false
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	s, err := h.Store.GetScreening(ctx, id)
	if err != nil {
		h.storeError(c, err, "screening")
		return nil, false
	}
	if !s.Published && !isAdmin(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "screening not found"})
		return nil, false
	}
	return s, true
}

func (h *Handler) GetScreening(c *gin.Context) {
	s, ok := h.visibleScreening(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.IncScreeningViews(ctx, s.ID); err != nil {
		h.Log.Warn("increment screening views", zap.String("screeningId", s.ID.Hex()), zap.Error(err))
	} else {
		s.Views++
	}
	c.JSON(http.StatusOK, gin.H{"screening": s})
}

func (h *Handler) CreateScreening(c *gin.Context) {
	var req ScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	now := h.now()
	s := &models.Screening{CreatedBy: currentUser(c).ID, CreatedAt: now, UpdatedAt: now}
	if !req.apply(s) {
		badRequest(c, "title is required and platformId must be valid")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if !h.screeningPlatformExists(ctx, c, s) {
		return
	}
	if err := h.Store.CreateScreening(ctx, s); err != nil {
		h.storeError(c, err, "screening")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"screening": s})
}

func (h *Handler) UpdateScreening(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	s, err := h.Store.GetScreening(ctx, id)
	if err != nil {
		h.storeError(c, err, "screening")
		return
	}
	if !req.apply(s) {
		badRequest(c, "title is required and platformId must be valid")
		return
	}
	if !h.screeningPlatformExists(ctx, c, s) {
		return
	}
	s.UpdatedAt = h.now()
	if err := h.Store.SaveScreening(ctx, s); err != nil {
		h.storeError(c, err, "screening")
		return
	}
	c.JSON(http.StatusOK, gin.H{"screening": s})
}

func (h *Handler) DeleteScreening(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.DeleteScreening(ctx, id); err != nil {
		h.storeError(c, err, "screening")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "screening deleted"})
}

func (h *Handler) ListComments(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	s, ok := h.visibleScreening(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	comments, total, err := h.Store.ListComments(ctx, s.ID, p)
	if err != nil {
		h.storeError(c, err, "comments")
		return
	}
	if comments == nil {
		comments = []models.ScreeningComment{}
	}
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}
	if len(ids) > 0 {
		authors := h.authors(ctx, ids)
		for i := range comments {
			comments[i].Author = authors[comments[i].UserID]
		}
	}
	c.JSON(http.StatusOK, newList(comments, total, p))
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

const maxCommentRunes = 1000

func (h *Handler) CreateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	text := content.Plain(req.Content)
	if text == "" || utf8.RuneCountInString(text) > maxCommentRunes {
		badRequest(c, "comment must be 1 to 1000 characters")
		return
	}
	s, ok := h.visibleScreening(c, "id")
	if !ok {
		return
	}
	if !s.Published {
		c.JSON(http.StatusConflict, gin.H{"error": "screening is not published"})
		return
	}

	u := currentUser(c)
	comment := &models.ScreeningComment{ScreeningID: s.ID, UserID: u.ID, Content: text, CreatedAt: h.now()}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreateComment(ctx, comment); err != nil {
		h.storeError(c, err, "comment")
		return
	}
	comment.Author = u.Public()
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	comment, err := h.Store.GetComment(ctx, id)
	if err != nil {
		h.storeError(c, err, "comment")
		return
	}
	u := currentUser(c)
	if comment.UserID != u.ID && !u.IsAdmin() {
		forbidden(c)
		return
	}
	if err := h.Store.DeleteComment(ctx, id); err != nil {
		h.storeError(c, err, "comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
