package database

import (
	"context"

	"aiinspire/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SavePushSubscription upserts by endpoint; a browser re-subscribing under another
// account moves the endpoint to that account.
func (d *DB) SavePushSubscription(ctx context.Context, s *models.PushSubscription) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := d.pushSubs.UpdateOne(ctx,
		bson.M{"endpoint": s.Endpoint},
		bson.M{
			"$set": bson.M{"userId": s.UserID, "p256dh": s.P256dh, "auth": s.Auth},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "createdAt": s.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (d *DB) ListPushSubscriptions(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	out := []models.PushSubscription{}
	err := findAll(ctx, d.pushSubs, bson.M{"userId": userID}, nil, &out)
	return out, err
}

func (d *DB) DeletePushSubscription(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.pushSubs.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return err
}
