package handlers

import (
	"errors"
	"net/http"
	"strings"

	"aiinspire/content"
	"aiinspire/models"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxTags = 10

type PostRequest struct {
	Title       string             `json:"title" binding:"required,max=120"`
	Content     string             `json:"content" binding:"max=20000"`
	Media       []models.MediaItem `json:"media" binding:"max=20,dive"`
	Prompt      string             `json:"prompt" binding:"max=5000"`
	PlatformID  string             `json:"platformId"`
	Tags        []string           `json:"tags" binding:"max=20"`
	MembersOnly bool               `json:"membersOnly"`
	Status      models.PostStatus  `json:"status" binding:"omitempty,oneof=published hidden"`
}

// apply validates req and copies it onto p. It writes the error response and
// returns false on failure.
func (h *Handler) applyPostRequest(c *gin.Context, req *PostRequest, p *models.Post) bool {
	title := content.Plain(req.Title)
	if title == "" {
		badRequest(c, "title is required")
		return false
	}

	var platformID *primitive.ObjectID
	if req.PlatformID != "" {
		id, err := primitive.ObjectIDFromHex(req.PlatformID)
		if err != nil {
			badRequest(c, "invalid platformId")
			return false
		}
		ctx, cancel := h.ctx(c)
		defer cancel()
		if _, err := h.Store.GetAIPlatform(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				badRequest(c, "platform does not exist")
				return false
			}
			h.storeError(c, err, "platform")
			return false
		}
		platformID = &id
	}

	media := req.Media
	if media == nil {
		media = []models.MediaItem{}
	}
	// Edits without a status keep the current one.
	status := req.Status
	if status == "" {
		status = p.Status
	}
	if status == "" {
		status = models.PostPublished
	}

	p.Title = title
	p.Content = req.Content
	p.ContentHTML = content.Markdown(req.Content)
	p.Media = media
	p.Prompt = strings.TrimSpace(req.Prompt)
	p.PlatformID = platformID
	p.Tags = content.Tags(req.Tags, maxTags)
	p.MembersOnly = req.MembersOnly
	p.Status = status
	return true
}

// canSeeLocked reports whether u may see members-only media on p.
func canSeeLocked(u *models.User, p *models.Post, now int64) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || p.OwnedBy(u.ID) || u.IsMember(now)
}

func (h *Handler) decoratePosts(c *gin.Context, posts []models.Post) {
	if len(posts) == 0 {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(posts))
	userIDs := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		userIDs = append(userIDs, p.UserID)
	}
	authors := h.authors(ctx, userIDs)

	viewer := currentUser(c)
	var liked map[primitive.ObjectID]bool
	if viewer != nil {
		var err error
		liked, err = h.Store.LikedPostIDs(ctx, viewer.ID, ids)
		if err != nil {
			h.Log.Warn("load liked posts", zap.Error(err))
		}
	}

	now := h.now()
	for i := range posts {
		p := &posts[i]
		p.Author = authors[p.UserID]
		p.Liked = liked[p.ID]
		if p.MembersOnly && !canSeeLocked(viewer, p, now) {
			p.Lock()
		}
	}
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u := currentUser(c)
	now := h.now()
	post := &models.Post{UserID: u.ID, CreatedAt: now, UpdatedAt: now}
	if !h.applyPostRequest(c, &req, post) {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreatePost(ctx, post); err != nil {
		h.storeError(c, err, "post")
		return
	}
	post.Author = u.Public()
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

func (h *Handler) ListPosts(c *gin.Context) {
	userID, ok := optionalID(c, "userId")
	if !ok {
		return
	}
	h.listPosts(c, userID)
}

func (h *Handler) listPosts(c *gin.Context, userID *primitive.ObjectID) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	platformID, ok := optionalID(c, "platformId")
	if !ok {
		return
	}
	sort := c.DefaultQuery("sort", "latest")
	if sort != "latest" && sort != "popular" {
		badRequest(c, "sort must be latest or popular")
		return
	}
	mediaType := c.Query("mediaType")
	if mediaType != "" && mediaType != models.MediaImage && mediaType != models.MediaVideo {
		badRequest(c, "mediaType must be image or video")
		return
	}

	f := store.PostFilter{
		PlatformID: platformID,
		UserID:     userID,
		Tag:        strings.TrimSpace(c.Query("tag")),
		MediaType:  mediaType,
		Query:      strings.TrimSpace(c.Query("q")),
		Sort:       sort,
	}
	if u := currentUser(c); u != nil {
		f.All = u.IsAdmin()
		f.Viewer = &u.ID
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	posts, total, err := h.Store.ListPosts(ctx, f, p)
	if err != nil {
		h.storeError(c, err, "posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	h.decoratePosts(c, posts)
	c.JSON(http.StatusOK, newList(posts, total, p))
}

// ListUserPosts lists one user's posts; hidden ones only for the user and admins.
func (h *Handler) ListUserPosts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.listPosts(c, &id)
}

// loadPost fetches the post and hides unpublished ones from everyone but the
// owner and admins.
func (h *Handler) loadPost(c *gin.Context) (*models.Post, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	post, err := h.Store.GetPost(ctx, id)
	if err != nil {
		h.storeError(c, err, "post")
		return nil, false
	}
	u := currentUser(c)
	if post.Status == models.PostHidden && (u == nil || !(u.IsAdmin() || post.OwnedBy(u.ID))) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return nil, false
	}
	return post, true
}

func (h *Handler) GetPost(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.IncPostViews(ctx, post.ID); err != nil {
		h.Log.Warn("increment post views", zap.String("postId", post.ID.Hex()), zap.Error(err))
	} else {
		post.Views++
	}
	posts := []models.Post{*post}
	h.decoratePosts(c, posts)
	c.JSON(http.StatusOK, gin.H{"post": posts[0]})
}

// ownPost loads the post and checks the caller may modify it.
func (h *Handler) ownPost(c *gin.Context) (*models.Post, bool) {
	post, ok := h.loadPost(c)
	if !ok {
		return nil, false
	}
	u := currentUser(c)
	if !u.IsAdmin() && !post.OwnedBy(u.ID) {
		forbidden(c)
		return nil, false
	}
	return post, true
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	post, ok := h.ownPost(c)
	if !ok {
		return
	}
	if !h.applyPostRequest(c, &req, post) {
		return
	}
	post.UpdatedAt = h.now()

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.SavePost(ctx, post); err != nil {
		h.storeError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *Handler) DeletePost(c *gin.Context) {
	post, ok := h.ownPost(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.DeletePost(ctx, post.ID); err != nil {
		h.storeError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *Handler) LikePost(c *gin.Context) {
	h.toggleLike(c, true)
}

func (h *Handler) UnlikePost(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *Handler) toggleLike(c *gin.Context, like bool) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	u := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()

	var changed bool
	var err error
	if like {
		changed, err = h.Store.LikePost(ctx, post.ID, u.ID, h.now())
	} else {
		changed, err = h.Store.UnlikePost(ctx, post.ID, u.ID)
	}
	if err != nil {
		h.storeError(c, err, "like")
		return
	}

	likes := post.Likes
	if updated, err := h.Store.GetPost(ctx, post.ID); err == nil {
		likes = updated.Likes
	}
	c.JSON(http.StatusOK, gin.H{"liked": like, "changed": changed, "likes": likes})
}
