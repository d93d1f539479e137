package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SpiritMessage is a message exchanged between a spirit post's author and its claimer.
type SpiritMessage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SpiritPostID primitive.ObjectID `bson:"spiritPostId" json:"spiritPostId"`
	SenderID     primitive.ObjectID `bson:"senderId" json:"senderId"`
	Content      string             `bson:"content" json:"content"`
	Read         bool               `bson:"read" json:"read"`
	CreatedAt    int64              `bson:"createdAt" json:"createdAt"`
}
