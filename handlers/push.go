package handlers

import (
	"net/http"

	"aiinspire/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetVapidPublicKey(c *gin.Context) {
	var key string
	if h.Push != nil {
		key = h.Push.PublicKey()
	}
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "web push is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": key})
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

func (h *Handler) SubscribePush(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u := currentUser(c)

	ctx, cancel := h.ctx(c)
	defer cancel()

	sub := &models.PushSubscription{
		UserID:    u.ID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		CreatedAt: h.now(),
	}
	if err := h.Store.SavePushSubscription(ctx, sub); err != nil {
		h.storeError(c, err, "push subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "push subscription saved"})
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) UnsubscribePush(c *gin.Context) {
	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	subs, err := h.Store.ListPushSubscriptions(ctx, currentUser(c).ID)
	if err != nil {
		h.storeError(c, err, "push subscription")
		return
	}
	for _, s := range subs {
		if s.Endpoint == req.Endpoint {
			if err := h.Store.DeletePushSubscription(ctx, s.Endpoint); err != nil {
				h.storeError(c, err, "push subscription")
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "push subscription removed"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "push subscription not found"})
}
