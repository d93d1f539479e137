package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aiinspire/middleware"
	"aiinspire/models"
	"aiinspire/push"
	"aiinspire/store"
	"aiinspire/upload"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// Hub delivers realtime events to connected users.
type Hub interface {
	SendToUser(userID, eventType string, payload interface{}) int
}

// Pusher delivers web push notifications.
type Pusher interface {
	Send(ctx context.Context, userID primitive.ObjectID, msg push.Message) int
	PublicKey() string
}

type Handler struct {
	Store   store.Store
	Tokens  middleware.Tokens
	Log     *zap.Logger
	Hub     Hub
	Push    Pusher
	Uploads *upload.Resolver
	Now     func() time.Time
}

func (h *Handler) now() int64 {
	if h.Now != nil {
		return h.Now().Unix()
	}
	return time.Now().Unix()
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

type listResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func newList(items interface{}, total int64, p store.Page) listResponse {
	p = p.Normalize()
	return listResponse{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
}

// storeError maps store sentinels onto HTTP statuses; anything else is a 500.
func (h *Handler) storeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": what + " was modified or is in the wrong state"})
	case errors.Is(err, context.DeadlineExceeded):
		h.Log.Warn("store timeout", zap.String("what", what), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request timed out"})
	default:
		h.Log.Error("store failure", zap.String("what", what), zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func idParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalID parses a hex id query parameter. A present but malformed value
// writes a 400.
func optionalID(c *gin.Context, name string) (*primitive.ObjectID, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func pageParams(c *gin.Context) (store.Page, bool) {
	var p store.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, "invalid pagination")
		return p, false
	}
	return p.Normalize(), true
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

func actorOf(u *models.User) models.Actor {
	if u == nil {
		return models.Actor{}
	}
	return models.Actor{ID: u.ID, Admin: u.IsAdmin()}
}

// authors resolves public profiles for ids; unknown ids map to a placeholder.
func (h *Handler) authors(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]*models.PublicUser {
	out := make(map[primitive.ObjectID]*models.PublicUser, len(ids))
	users, err := h.Store.GetUsersByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("load authors", zap.Error(err))
	}
	for _, id := range ids {
		if u, ok := users[id]; ok {
			out[id] = u.Public()
		} else {
			out[id] = models.UnknownUser(id)
		}
	}
	return out
}

// notify sends a realtime event and a web push to userID. Failures are logged
// and never reach the caller.
func (h *Handler) notify(userID primitive.ObjectID, eventType string, payload interface{}, msg push.Message) {
	if h.Hub != nil {
		h.Hub.SendToUser(userID.Hex(), eventType, payload)
	}
	if h.Push == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.Log.Error("panic in push notification", zap.Any("recovered", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		h.Push.Send(ctx, userID, msg)
	}()
}
