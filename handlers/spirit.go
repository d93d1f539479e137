package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"aiinspire/content"
	"aiinspire/metrics"
	"aiinspire/models"
	"aiinspire/push"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type SpiritPostRequest struct {
	Title       string   `json:"title" binding:"required,max=120"`
	Description string   `json:"description" binding:"max=20000"`
	Reward      string   `json:"reward" binding:"max=200"`
	Tags        []string `json:"tags" binding:"max=20"`
}

func (r *SpiritPostRequest) apply(p *models.SpiritPost) bool {
	p.Title = content.Plain(r.Title)
	p.Description = r.Description
	p.DescriptionHTML = content.Markdown(r.Description)
	p.Reward = content.Plain(r.Reward)
	p.Tags = content.Tags(r.Tags, maxTags)
	return p.Title != ""
}

func (h *Handler) decorateSpirits(c *gin.Context, posts []models.SpiritPost) {
	if len(posts) == 0 {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(posts)*2)
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
		if p.ClaimerID != nil {
			ids = append(ids, *p.ClaimerID)
		}
	}
	users := h.authors(ctx, ids)
	for i := range posts {
		posts[i].Author = users[posts[i].AuthorID]
		if posts[i].ClaimerID != nil {
			posts[i].Claimer = users[*posts[i].ClaimerID]
		}
	}
}

func (h *Handler) CreateSpiritPost(c *gin.Context) {
	var req SpiritPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u := currentUser(c)
	now := h.now()
	post := &models.SpiritPost{AuthorID: u.ID, Status: models.SpiritOpen, CreatedAt: now, UpdatedAt: now}
	if !req.apply(post) {
		badRequest(c, "title is required")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreateSpiritPost(ctx, post); err != nil {
		h.storeError(c, err, "spirit post")
		return
	}
	post.Author = u.Public()
	c.JSON(http.StatusCreated, gin.H{"spiritPost": post})
}

func (h *Handler) listSpirits(c *gin.Context, f store.SpiritFilter) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	if s := models.SpiritStatus(c.Query("status")); s != "" {
		if !s.Valid() {
			badRequest(c, "invalid status")
			return
		}
		f.Status = s
	}
	f.Tag = c.Query("tag")

	ctx, cancel := h.ctx(c)
	defer cancel()

	posts, total, err := h.Store.ListSpiritPosts(ctx, f, p)
	if err != nil {
		h.storeError(c, err, "spirit posts")
		return
	}
	if posts == nil {
		posts = []models.SpiritPost{}
	}
	h.decorateSpirits(c, posts)
	c.JSON(http.StatusOK, newList(posts, total, p))
}

func (h *Handler) ListSpiritPosts(c *gin.Context) {
	authorID, ok := optionalID(c, "authorId")
	if !ok {
		return
	}
	claimerID, ok := optionalID(c, "claimerId")
	if !ok {
		return
	}
	h.listSpirits(c, store.SpiritFilter{AuthorID: authorID, ClaimerID: claimerID})
}

// MySpiritPosts lists posts the caller wrote (role=author) or holds (role=claimer).
func (h *Handler) MySpiritPosts(c *gin.Context) {
	u := currentUser(c)
	switch c.DefaultQuery("role", "author") {
	case "author":
		h.listSpirits(c, store.SpiritFilter{AuthorID: &u.ID})
	case "claimer":
		h.listSpirits(c, store.SpiritFilter{ClaimerID: &u.ID})
	default:
		badRequest(c, "role must be author or claimer")
	}
}

func (h *Handler) loadSpirit(c *gin.Context) (*models.SpiritPost, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	post, err := h.Store.GetSpiritPost(ctx, id)
	if err != nil {
		h.storeError(c, err, "spirit post")
		return nil, false
	}
	return post, true
}

func (h *Handler) GetSpiritPost(c *gin.Context) {
	post, ok := h.loadSpirit(c)
	if !ok {
		return
	}
	posts := []models.SpiritPost{*post}
	h.decorateSpirits(c, posts)
	c.JSON(http.StatusOK, gin.H{"spiritPost": posts[0]})
}

func (h *Handler) UpdateSpiritPost(c *gin.Context) {
	var req SpiritPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	post, ok := h.loadSpirit(c)
	if !ok {
		return
	}
	if !post.IsAuthor(currentUser(c).ID) {
		forbidden(c)
		return
	}
	if !post.Editable() {
		c.JSON(http.StatusConflict, gin.H{"error": "only open spirit posts can be edited"})
		return
	}
	if !req.apply(post) {
		badRequest(c, "title is required")
		return
	}
	post.UpdatedAt = h.now()

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.UpdateSpiritPost(ctx, post); err != nil {
		h.storeError(c, err, "spirit post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"spiritPost": post})
}

func (h *Handler) DeleteSpiritPost(c *gin.Context) {
	post, ok := h.loadSpirit(c)
	if !ok {
		return
	}
	u := currentUser(c)
	if !u.IsAdmin() && !post.IsAuthor(u.ID) {
		forbidden(c)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.DeleteSpiritPost(ctx, post.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "a claimed spirit post cannot be deleted"})
			return
		}
		h.storeError(c, err, "spirit post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "spirit post deleted"})
}

var transitionEvents = map[models.SpiritAction]struct {
	event string
	title string
}{
	models.SpiritClaim:    {"spirit.claimed", "Your spirit post was claimed"},
	models.SpiritRelease:  {"spirit.released", "A spirit post was released"},
	models.SpiritComplete: {"spirit.completed", "A spirit post was completed"},
	models.SpiritClose:    {"spirit.closed", "A spirit post was closed"},
}

// Transition returns a handler applying action to the spirit post in :id.
func (h *Handler) Transition(action models.SpiritAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, ok := h.loadSpirit(c)
		if !ok {
			return
		}
		u := currentUser(c)
		previousClaimer := post.ClaimerID

		err := post.Apply(action, actorOf(u), h.now())
		switch {
		case errors.Is(err, models.ErrNotAllowed):
			metrics.SpiritTransitions.WithLabelValues(string(action), "forbidden").Inc()
			forbidden(c)
			return
		case errors.Is(err, models.ErrInvalidTransition):
			metrics.SpiritTransitions.WithLabelValues(string(action), "invalid").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": post.Status})
			return
		case err != nil:
			badRequest(c, err.Error())
			return
		}

		ctx, cancel := h.ctx(c)
		defer cancel()

		if err := h.Store.UpdateSpiritPost(ctx, post); err != nil {
			if errors.Is(err, store.ErrConflict) {
				metrics.SpiritTransitions.WithLabelValues(string(action), "conflict").Inc()
				c.JSON(http.StatusConflict, gin.H{"error": "spirit post was changed by someone else, reload and retry"})
				return
			}
			h.storeError(c, err, "spirit post")
			return
		}
		metrics.SpiritTransitions.WithLabelValues(string(action), "ok").Inc()
		h.Log.Info("spirit post transition",
			zap.String("postId", post.ID.Hex()),
			zap.String("action", string(action)),
			zap.String("userId", u.ID.Hex()),
			zap.String("status", string(post.Status)),
		)

		ev := transitionEvents[action]
		payload := gin.H{"spiritPostId": post.ID.Hex(), "status": post.Status, "actorId": u.ID.Hex()}
		for _, to := range transitionRecipients(post, previousClaimer, u.ID) {
			h.notify(to, ev.event, payload, push.Message{Title: ev.title, Body: post.Title, URL: "/spirit/" + post.ID.Hex()})
		}

		posts := []models.SpiritPost{*post}
		h.decorateSpirits(c, posts)
		c.JSON(http.StatusOK, gin.H{"spiritPost": posts[0]})
	}
}

// transitionRecipients is everyone involved in the post except the actor.
func transitionRecipients(p *models.SpiritPost, previousClaimer *primitive.ObjectID, actor primitive.ObjectID) []primitive.ObjectID {
	var out []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if id == actor {
			return
		}
		for _, seen := range out {
			if seen == id {
				return
			}
		}
		out = append(out, id)
	}
	add(p.AuthorID)
	if previousClaimer != nil {
		add(*previousClaimer)
	}
	if p.ClaimerID != nil {
		add(*p.ClaimerID)
	}
	return out
}

type SpiritMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

const maxMessageRunes = 2000

// participantPost loads the post and checks the caller belongs to its thread.
func (h *Handler) participantPost(c *gin.Context) (*models.SpiritPost, bool) {
	post, ok := h.loadSpirit(c)
	if !ok {
		return nil, false
	}
	if !post.IsParticipant(actorOf(currentUser(c))) {
		forbidden(c)
		return nil, false
	}
	return post, true
}

func (h *Handler) SendSpiritMessage(c *gin.Context) {
	var req SpiritMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	text := content.Plain(req.Content)
	if text == "" || utf8.RuneCountInString(text) > maxMessageRunes {
		badRequest(c, "message must be 1 to 2000 characters")
		return
	}
	post, ok := h.participantPost(c)
	if !ok {
		return
	}
	if !post.AcceptsMessages() {
		c.JSON(http.StatusConflict, gin.H{"error": "messages are only possible on claimed or completed spirit posts"})
		return
	}

	u := currentUser(c)
	msg := &models.SpiritMessage{
		SpiritPostID: post.ID,
		SenderID:     u.ID,
		Content:      text,
		CreatedAt:    h.now(),
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreateSpiritMessage(ctx, msg); err != nil {
		h.storeError(c, err, "message")
		return
	}

	for _, to := range transitionRecipients(post, nil, u.ID) {
		h.notify(to, "spirit.message", msg, push.Message{
			Title: u.DisplayName() + " sent a message",
			Body:  truncate(text, 100),
			URL:   "/spirit/" + post.ID.Hex(),
		})
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) ListSpiritMessages(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	post, ok := h.participantPost(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	msgs, total, err := h.Store.ListSpiritMessages(ctx, post.ID, p)
	if err != nil {
		h.storeError(c, err, "messages")
		return
	}
	if msgs == nil {
		msgs = []models.SpiritMessage{}
	}
	c.JSON(http.StatusOK, newList(msgs, total, p))
}

func (h *Handler) MarkSpiritMessagesRead(c *gin.Context) {
	post, ok := h.participantPost(c)
	if !ok {
		return
	}
	u := currentUser(c)
	// Moderators reading a thread leave the unread state alone.
	other, ok := post.Counterparty(u.ID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"updated": 0})
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.Store.MarkSpiritMessagesRead(ctx, post.ID, other)
	if err != nil {
		h.storeError(c, err, "messages")
		return
	}
	if n > 0 && h.Hub != nil {
		h.Hub.SendToUser(other.Hex(), "spirit.read", gin.H{"spiritPostId": post.ID.Hex(), "readerId": u.ID.Hex()})
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
