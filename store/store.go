// Package store defines the persistence contracts used by the HTTP handlers.
// database implements them on MongoDB; memstore implements them in memory for tests.
package store

import (
	"context"
	"errors"

	"aiinspire/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrDuplicate = errors.New("duplicate")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// Normalize clamps page and size into range.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Skip() int64 {
	p = p.Normalize()
	return int64((p.Page - 1) * p.PageSize)
}

func (p Page) Limit() int64 {
	return int64(p.Normalize().PageSize)
}

// UserUpdate carries the fields to $set; nil fields are left untouched.
type UserUpdate struct {
	Nickname            *string
	Avatar              *string
	Bio                 *string
	PasswordHash        *string
	Role                *models.Role
	Disabled            *bool
	MembershipLevel     *string
	MembershipExpiresAt *int64
	LastLoginAt         *int64
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
	// FindUserByAccount looks a user up by email or username.
	FindUserByAccount(ctx context.Context, account string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, upd UserUpdate, now int64) (*models.User, error)
	ListUsers(ctx context.Context, query string, p Page) ([]models.User, int64, error)
	// ExtendMembership atomically pushes the expiry by days and sets level.
	ExtendMembership(ctx context.Context, id primitive.ObjectID, level string, days int, now int64) (*models.User, error)
	ClearExpiredMemberships(ctx context.Context, now int64) (int64, error)
}

type PostFilter struct {
	PlatformID *primitive.ObjectID
	UserID     *primitive.ObjectID
	Tag        string
	MediaType  string
	Query      string
	Sort       string // latest | popular
	// Hidden posts are returned when All is set, or when they belong to Viewer.
	All    bool
	Viewer *primitive.ObjectID
}

type Posts interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	SavePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	ListPosts(ctx context.Context, f PostFilter, p Page) ([]models.Post, int64, error)
	IncPostViews(ctx context.Context, id primitive.ObjectID) error
	CountPostsByPlatform(ctx context.Context, platformID primitive.ObjectID) (int64, error)
	// LikePost reports whether a new like was recorded.
	LikePost(ctx context.Context, postID, userID primitive.ObjectID, now int64) (bool, error)
	// UnlikePost reports whether an existing like was removed.
	UnlikePost(ctx context.Context, postID, userID primitive.ObjectID) (bool, error)
	LikedPostIDs(ctx context.Context, userID primitive.ObjectID, postIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}

type AIPlatforms interface {
	CreateAIPlatform(ctx context.Context, p *models.AIPlatform) error
	GetAIPlatform(ctx context.Context, id primitive.ObjectID) (*models.AIPlatform, error)
	FindAIPlatformBySlug(ctx context.Context, slug string) (*models.AIPlatform, error)
	SaveAIPlatform(ctx context.Context, p *models.AIPlatform) error
	DeleteAIPlatform(ctx context.Context, id primitive.ObjectID) error
	ListAIPlatforms(ctx context.Context, enabledOnly bool) ([]models.AIPlatform, error)
}

type CodeFilter struct {
	BatchID   string
	ProductID *primitive.ObjectID
	Used      *bool
}

type Membership interface {
	CreateProduct(ctx context.Context, p *models.MembershipProduct) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.MembershipProduct, error)
	FindProductByName(ctx context.Context, name string) (*models.MembershipProduct, error)
	SaveProduct(ctx context.Context, p *models.MembershipProduct) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	ListProducts(ctx context.Context, enabledOnly bool) ([]models.MembershipProduct, error)

	InsertCodes(ctx context.Context, codes []models.RedemptionCode) error
	GetCode(ctx context.Context, code string) (*models.RedemptionCode, error)
	ListCodes(ctx context.Context, f CodeFilter, p Page) ([]models.RedemptionCode, int64, error)
	// DeleteCode removes an unused code; a used code yields ErrConflict.
	DeleteCode(ctx context.Context, id primitive.ObjectID) error
	// ConsumeCode marks a redeemable code used by userID. It returns ErrNotFound for an
	// unknown code and ErrConflict when the code is used or expired.
	ConsumeCode(ctx context.Context, code string, userID primitive.ObjectID, now int64) (*models.RedemptionCode, error)
}

type SpiritFilter struct {
	Status    models.SpiritStatus
	AuthorID  *primitive.ObjectID
	ClaimerID *primitive.ObjectID
	Tag       string
}

type SpiritPosts interface {
	CreateSpiritPost(ctx context.Context, p *models.SpiritPost) error
	GetSpiritPost(ctx context.Context, id primitive.ObjectID) (*models.SpiritPost, error)
	// UpdateSpiritPost writes p if the stored version still equals p.Version and bumps it.
	// A stale version yields ErrConflict.
	UpdateSpiritPost(ctx context.Context, p *models.SpiritPost) error
	// DeleteSpiritPost removes the post and its messages unless it is currently claimed.
	DeleteSpiritPost(ctx context.Context, id primitive.ObjectID) error
	ListSpiritPosts(ctx context.Context, f SpiritFilter, p Page) ([]models.SpiritPost, int64, error)

	CreateSpiritMessage(ctx context.Context, m *models.SpiritMessage) error
	ListSpiritMessages(ctx context.Context, postID primitive.ObjectID, p Page) ([]models.SpiritMessage, int64, error)
	// MarkSpiritMessagesRead flags the unread messages fromID sent in the thread.
	MarkSpiritMessagesRead(ctx context.Context, postID, fromID primitive.ObjectID) (int64, error)
}

type Screenings interface {
	CreateScreening(ctx context.Context, s *models.Screening) error
	GetScreening(ctx context.Context, id primitive.ObjectID) (*models.Screening, error)
	SaveScreening(ctx context.Context, s *models.Screening) error
	DeleteScreening(ctx context.Context, id primitive.ObjectID) error
	ListScreenings(ctx context.Context, publishedOnly bool, p Page) ([]models.Screening, int64, error)
	IncScreeningViews(ctx context.Context, id primitive.ObjectID) error
	CountScreeningsByPlatform(ctx context.Context, platformID primitive.ObjectID) (int64, error)

	CreateComment(ctx context.Context, c *models.ScreeningComment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.ScreeningComment, error)
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	ListComments(ctx context.Context, screeningID primitive.ObjectID, p Page) ([]models.ScreeningComment, int64, error)
}

type SocialMedia interface {
	CreateSocialMedia(ctx context.Context, s *models.SocialMedia) error
	GetSocialMedia(ctx context.Context, id primitive.ObjectID) (*models.SocialMedia, error)
	FindSocialMediaByName(ctx context.Context, name string) (*models.SocialMedia, error)
	SaveSocialMedia(ctx context.Context, s *models.SocialMedia) error
	DeleteSocialMedia(ctx context.Context, id primitive.ObjectID) error
	ListSocialMedia(ctx context.Context, enabledOnly bool) ([]models.SocialMedia, error)
}

type Settings interface {
	// GetSetting decodes the value stored under key into out, or returns ErrNotFound.
	GetSetting(ctx context.Context, key string, out interface{}) error
	PutSetting(ctx context.Context, key string, value interface{}, now int64) error
}

type PushSubscriptions interface {
	SavePushSubscription(ctx context.Context, s *models.PushSubscription) error
	ListPushSubscriptions(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

type Stats interface {
	Stats(ctx context.Context, now int64) (*models.Stats, error)
}

type Store interface {
	Users
	Posts
	AIPlatforms
	Membership
	SpiritPosts
	Screenings
	SocialMedia
	Settings
	PushSubscriptions
	Stats
	Ping(ctx context.Context) error
}
