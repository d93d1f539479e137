package database

import (
	"context"

	"aiinspire/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (d *DB) CreateSocialMedia(ctx context.Context, s *models.SocialMedia) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.socialMedia, s)
}

func (d *DB) GetSocialMedia(ctx context.Context, id primitive.ObjectID) (*models.SocialMedia, error) {
	var s models.SocialMedia
	if err := findOne(ctx, d.socialMedia, bson.M{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) FindSocialMediaByName(ctx context.Context, name string) (*models.SocialMedia, error) {
	var s models.SocialMedia
	if err := findOne(ctx, d.socialMedia, bson.M{"name": name}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) SaveSocialMedia(ctx context.Context, s *models.SocialMedia) error {
	return replaceOne(ctx, d.socialMedia, bson.M{"_id": s.ID}, s)
}

func (d *DB) DeleteSocialMedia(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, d.socialMedia, bson.M{"_id": id})
}

func (d *DB) ListSocialMedia(ctx context.Context, enabledOnly bool) ([]models.SocialMedia, error) {
	filter := bson.M{}
	if enabledOnly {
		filter["enabled"] = true
	}
	out := []models.SocialMedia{}
	err := findAll(ctx, d.socialMedia, filter, options.Find().SetSort(bySortOrder), &out)
	return out, err
}
