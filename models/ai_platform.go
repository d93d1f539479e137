package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AIPlatform is a generator (Midjourney, Sora, ...) that posts and screenings can be tagged with.
type AIPlatform struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Website     string             `bson:"website" json:"website"`
	Icon        string             `bson:"icon" json:"icon"`
	Description string             `bson:"description" json:"description"`
	SortOrder   int                `bson:"sortOrder" json:"sortOrder"`
	Enabled     bool               `bson:"enabled" json:"enabled"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64              `bson:"updatedAt" json:"updatedAt"`
}
