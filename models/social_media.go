package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SocialMedia is a footer link to one of the club's external accounts.
type SocialMedia struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Icon      string             `bson:"icon" json:"icon"`
	URL       string             `bson:"url" json:"url"`
	QRCode    string             `bson:"qrCode,omitempty" json:"qrCode"`
	SortOrder int                `bson:"sortOrder" json:"sortOrder"`
	Enabled   bool               `bson:"enabled" json:"enabled"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64              `bson:"updatedAt" json:"updatedAt"`
}
