package database

import (
	"context"

	"aiinspire/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (d *DB) CreateAIPlatform(ctx context.Context, p *models.AIPlatform) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.aiPlatforms, p)
}

func (d *DB) GetAIPlatform(ctx context.Context, id primitive.ObjectID) (*models.AIPlatform, error) {
	var p models.AIPlatform
	if err := findOne(ctx, d.aiPlatforms, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) FindAIPlatformBySlug(ctx context.Context, slug string) (*models.AIPlatform, error) {
	var p models.AIPlatform
	if err := findOne(ctx, d.aiPlatforms, bson.M{"slug": slug}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) SaveAIPlatform(ctx context.Context, p *models.AIPlatform) error {
	return replaceOne(ctx, d.aiPlatforms, bson.M{"_id": p.ID}, p)
}

func (d *DB) DeleteAIPlatform(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, d.aiPlatforms, bson.M{"_id": id})
}

func (d *DB) ListAIPlatforms(ctx context.Context, enabledOnly bool) ([]models.AIPlatform, error) {
	filter := bson.M{}
	if enabledOnly {
		filter["enabled"] = true
	}
	out := []models.AIPlatform{}
	err := findAll(ctx, d.aiPlatforms, filter, options.Find().SetSort(bySortOrder), &out)
	return out, err
}
