package database

import (
	"context"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (d *DB) CreateScreening(ctx context.Context, s *models.Screening) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.screenings, s)
}

func (d *DB) GetScreening(ctx context.Context, id primitive.ObjectID) (*models.Screening, error) {
	var s models.Screening
	if err := findOne(ctx, d.screenings, bson.M{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) SaveScreening(ctx context.Context, s *models.Screening) error {
	return replaceOne(ctx, d.screenings, bson.M{"_id": s.ID}, s)
}

func (d *DB) DeleteScreening(ctx context.Context, id primitive.ObjectID) error {
	if err := deleteOne(ctx, d.screenings, bson.M{"_id": id}); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.comments.DeleteMany(ctx, bson.M{"screeningId": id})
	return err
}

func (d *DB) ListScreenings(ctx context.Context, publishedOnly bool, p store.Page) ([]models.Screening, int64, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	out := []models.Screening{}
	sort := bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}}
	total, err := paginate(ctx, d.screenings, filter, sort, p, &out)
	return out, total, err
}

func (d *DB) IncScreeningViews(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.screenings.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

func (d *DB) CountScreeningsByPlatform(ctx context.Context, platformID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return d.screenings.CountDocuments(ctx, bson.M{"platformId": platformID})
}

func (d *DB) CreateComment(ctx context.Context, c *models.ScreeningComment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.comments, c)
}

func (d *DB) GetComment(ctx context.Context, id primitive.ObjectID) (*models.ScreeningComment, error) {
	var c models.ScreeningComment
	if err := findOne(ctx, d.comments, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, d.comments, bson.M{"_id": id})
}

func (d *DB) ListComments(ctx context.Context, screeningID primitive.ObjectID, p store.Page) ([]models.ScreeningComment, int64, error) {
	out := []models.ScreeningComment{}
	total, err := paginate(ctx, d.comments, bson.M{"screeningId": screeningID}, newestFirst, p, &out)
	return out, total, err
}
