package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCodeBatch = 1000

const secondsPerDay = 86400

type MembershipProduct struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Level        string             `bson:"level" json:"level"`
	PriceCents   int64              `bson:"priceCents" json:"priceCents"`
	DurationDays int                `bson:"durationDays" json:"durationDays"`
	Enabled      bool               `bson:"enabled" json:"enabled"`
	SortOrder    int                `bson:"sortOrder" json:"sortOrder"`
	CreatedAt    int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt    int64              `bson:"updatedAt" json:"updatedAt"`
}

type RedemptionCode struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Code         string              `bson:"code" json:"code"`
	ProductID    primitive.ObjectID  `bson:"productId" json:"productId"`
	Level        string              `bson:"level" json:"level"`
	DurationDays int                 `bson:"durationDays" json:"durationDays"`
	BatchID      string              `bson:"batchId" json:"batchId"`
	ExpiresAt    int64               `bson:"expiresAt" json:"expiresAt"` // 0 = never
	Used         bool                `bson:"used" json:"used"`
	UsedBy       *primitive.ObjectID `bson:"usedBy,omitempty" json:"usedBy,omitempty"`
	UsedAt       int64               `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	CreatedAt    int64               `bson:"createdAt" json:"createdAt"`
}

func (c *RedemptionCode) Expired(now int64) bool {
	return c.ExpiresAt != 0 && c.ExpiresAt <= now
}

// Redeemable reports whether the code can still be consumed at now.
func (c *RedemptionCode) Redeemable(now int64) bool {
	return !c.Used && !c.Expired(now)
}

type MembershipStatus struct {
	Level     string `json:"level"`
	ExpiresAt int64  `json:"expiresAt"`
	Active    bool   `json:"active"`
}

func (u *User) Membership(now int64) MembershipStatus {
	active := u.IsMember(now)
	level := u.MembershipLevel
	if !active {
		level = ""
	}
	return MembershipStatus{Level: level, ExpiresAt: u.MembershipExpiresAt, Active: active}
}

// ExtendExpiry adds days to a membership. Time left on a running membership is kept;
// a lapsed one restarts from now.
func ExtendExpiry(current, now int64, days int) int64 {
	base := current
	if now > base {
		base = now
	}
	return base + int64(days)*secondsPerDay
}

// NormalizeCode canonicalizes user-typed redemption codes.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// NewRedemptionCodeValue returns 16 uppercase hex characters.
func NewRedemptionCodeValue() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NewCodeBatch generates count unused codes for product sharing one batch id.
func NewCodeBatch(product *MembershipProduct, count int, expiresAt, now int64) ([]RedemptionCode, error) {
	if count < 1 || count > MaxCodeBatch {
		return nil, errors.New("count must be between 1 and 1000")
	}
	batchID := uuid.NewString()
	codes := make([]RedemptionCode, 0, count)
	seen := make(map[string]bool, count)
	for len(codes) < count {
		value, err := NewRedemptionCodeValue()
		if err != nil {
			return nil, err
		}
		if seen[value] {
			continue
		}
		seen[value] = true
		codes = append(codes, RedemptionCode{
			ID:           primitive.NewObjectID(),
			Code:         value,
			ProductID:    product.ID,
			Level:        product.Level,
			DurationDays: product.DurationDays,
			BatchID:      batchID,
			ExpiresAt:    expiresAt,
			CreatedAt:    now,
		})
	}
	return codes, nil
}
