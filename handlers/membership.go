package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"aiinspire/content"
	"aiinspire/metrics"
	"aiinspire/models"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ProductRequest struct {
	Name         string `json:"name" binding:"required,max=64"`
	Description  string `json:"description" binding:"max=2000"`
	Level        string `json:"level" binding:"required,max=32"`
	PriceCents   int64  `json:"priceCents" binding:"min=0"`
	DurationDays int    `json:"durationDays" binding:"required,min=1,max=3650"`
	Enabled      *bool  `json:"enabled"`
	SortOrder    int    `json:"sortOrder"`
}

func (r *ProductRequest) apply(p *models.MembershipProduct) {
	p.Name = content.Plain(r.Name)
	p.Description = content.Plain(r.Description)
	p.Level = content.Plain(r.Level)
	p.PriceCents = r.PriceCents
	p.DurationDays = r.DurationDays
	p.SortOrder = r.SortOrder
	if r.Enabled != nil {
		p.Enabled = *r.Enabled
	}
}

func (h *Handler) ListProducts(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	products, err := h.Store.ListProducts(ctx, true)
	if err != nil {
		h.storeError(c, err, "products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

func (h *Handler) AdminListProducts(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	products, err := h.Store.ListProducts(ctx, false)
	if err != nil {
		h.storeError(c, err, "products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	now := h.now()
	p := &models.MembershipProduct{Enabled: true, CreatedAt: now, UpdatedAt: now}
	req.apply(p)
	if p.Name == "" || p.Level == "" {
		badRequest(c, "name and level are required")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.CreateProduct(ctx, p); err != nil {
		h.storeError(c, err, "product")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, id)
	if err != nil {
		h.storeError(c, err, "product")
		return
	}
	req.apply(p)
	if p.Name == "" || p.Level == "" {
		badRequest(c, "name and level are required")
		return
	}
	p.UpdatedAt = h.now()
	if err := h.Store.SaveProduct(ctx, p); err != nil {
		h.storeError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.DeleteProduct(ctx, id); err != nil {
		h.storeError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

type GenerateCodesRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	Count         int    `json:"count" binding:"required,min=1,max=1000"`
	ExpiresInDays int    `json:"expiresInDays" binding:"min=0,max=3650"`
}

func (h *Handler) GenerateCodes(c *gin.Context) {
	var req GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		badRequest(c, "invalid productId")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	product, err := h.Store.GetProduct(ctx, productID)
	if err != nil {
		h.storeError(c, err, "product")
		return
	}

	now := h.now()
	var expiresAt int64
	if req.ExpiresInDays > 0 {
		expiresAt = models.ExtendExpiry(0, now, req.ExpiresInDays)
	}
	codes, err := models.NewCodeBatch(product, req.Count, expiresAt, now)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Store.InsertCodes(ctx, codes); err != nil {
		h.storeError(c, err, "redemption code")
		return
	}

	h.Log.Info("redemption codes generated",
		zap.String("productId", product.ID.Hex()),
		zap.String("batchId", codes[0].BatchID),
		zap.Int("count", len(codes)),
	)
	c.JSON(http.StatusCreated, gin.H{"batchId": codes[0].BatchID, "codes": codes})
}

func (h *Handler) ListCodes(c *gin.Context) {
	p, ok := pageParams(c)
	if !ok {
		return
	}
	productID, ok := optionalID(c, "productId")
	if !ok {
		return
	}
	f := store.CodeFilter{BatchID: c.Query("batchId"), ProductID: productID}
	if v := c.Query("used"); v != "" {
		used, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "used must be true or false")
			return
		}
		f.Used = &used
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	codes, total, err := h.Store.ListCodes(ctx, f, p)
	if err != nil {
		h.storeError(c, err, "redemption codes")
		return
	}
	if codes == nil {
		codes = []models.RedemptionCode{}
	}
	c.JSON(http.StatusOK, newList(codes, total, p))
}

func (h *Handler) DeleteCode(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Store.DeleteCode(ctx, id); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "code has already been used"})
			return
		}
		h.storeError(c, err, "redemption code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code deleted"})
}

type RedeemRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

func (h *Handler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	code := models.NormalizeCode(req.Code)
	if code == "" {
		badRequest(c, "code is required")
		return
	}
	u := currentUser(c)
	now := h.now()

	ctx, cancel := h.ctx(c)
	defer cancel()

	consumed, err := h.Store.ConsumeCode(ctx, code, u.ID, now)
	switch {
	case errors.Is(err, store.ErrNotFound):
		metrics.Redemptions.WithLabelValues("unknown").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "redemption code not found"})
		return
	case errors.Is(err, store.ErrConflict):
		metrics.Redemptions.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "redemption code is used or expired"})
		return
	case err != nil:
		metrics.Redemptions.WithLabelValues("error").Inc()
		h.storeError(c, err, "redemption code")
		return
	}

	updated, err := h.Store.ExtendMembership(ctx, u.ID, consumed.Level, consumed.DurationDays, now)
	if err != nil {
		metrics.Redemptions.WithLabelValues("error").Inc()
		h.Log.Error("extend membership after consuming code",
			zap.String("userId", u.ID.Hex()),
			zap.String("codeId", consumed.ID.Hex()),
			zap.Error(err),
		)
		h.storeError(c, err, "membership")
		return
	}

	metrics.Redemptions.WithLabelValues("ok").Inc()
	h.Log.Info("code redeemed", zap.String("userId", u.ID.Hex()), zap.String("codeId", consumed.ID.Hex()))
	c.JSON(http.StatusOK, gin.H{
		"membership":   updated.Membership(now),
		"durationDays": consumed.DurationDays,
	})
}

func (h *Handler) MyMembership(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c).Membership(h.now()))
}
