package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type PostStatus string

const (
	PostPublished PostStatus = "published"
	PostHidden    PostStatus = "hidden"
)

const (
	MediaImage = "image"
	MediaVideo = "video"
)

type MediaItem struct {
	URL  string `bson:"url" json:"url" binding:"required,url"`
	Type string `bson:"type" json:"type" binding:"required,oneof=image video"`
}

type Post struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Title       string              `bson:"title" json:"title"`
	Content     string              `bson:"content" json:"content"`
	ContentHTML string              `bson:"contentHtml" json:"contentHtml"`
	Media       []MediaItem         `bson:"media" json:"media"`
	Prompt      string              `bson:"prompt,omitempty" json:"prompt"`
	PlatformID  *primitive.ObjectID `bson:"platformId,omitempty" json:"platformId,omitempty"`
	Tags        []string            `bson:"tags" json:"tags"`
	MembersOnly bool                `bson:"membersOnly" json:"membersOnly"`
	Status      PostStatus          `bson:"status" json:"status"`
	Views       int64               `bson:"views" json:"views"`
	Likes       int64               `bson:"likes" json:"likes"`
	CreatedAt   int64               `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64               `bson:"updatedAt" json:"updatedAt"`

	// Populated in responses only
	Author *PublicUser `bson:"-" json:"author,omitempty"`
	Liked  bool        `bson:"-" json:"liked,omitempty"`
	Locked bool        `bson:"-" json:"locked,omitempty"`
}

func (p *Post) OwnedBy(userID primitive.ObjectID) bool {
	return p.UserID == userID
}

// Lock strips the parts of a members-only post that non-members may not see.
func (p *Post) Lock() {
	p.Media = []MediaItem{}
	p.Prompt = ""
	p.Locked = true
}

// PrimaryMediaType is the type of the first media item, used for list filtering.
func (p *Post) PrimaryMediaType() string {
	if len(p.Media) == 0 {
		return ""
	}
	return p.Media[0].Type
}

type PostLike struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
