package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Screening struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title           string              `bson:"title" json:"title"`
	Description     string              `bson:"description" json:"description"`
	VideoURL        string              `bson:"videoUrl" json:"videoUrl"`
	CoverURL        string              `bson:"coverUrl" json:"coverUrl"`
	Creator         string              `bson:"creator" json:"creator"`
	DurationSeconds int                 `bson:"durationSeconds" json:"durationSeconds"`
	PlatformID      *primitive.ObjectID `bson:"platformId,omitempty" json:"platformId,omitempty"`
	Published       bool                `bson:"published" json:"published"`
	Views           int64               `bson:"views" json:"views"`
	SortOrder       int                 `bson:"sortOrder" json:"sortOrder"`
	CreatedBy       primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt       int64               `bson:"createdAt" json:"createdAt"`
	UpdatedAt       int64               `bson:"updatedAt" json:"updatedAt"`
}

type ScreeningComment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ScreeningID primitive.ObjectID `bson:"screeningId" json:"screeningId"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Content     string             `bson:"content" json:"content"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`

	Author *PublicUser `bson:"-" json:"author,omitempty"`
}
