package database

import (
	"context"

	"aiinspire/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (d *DB) Stats(ctx context.Context, now int64) (*models.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	st := &models.Stats{SpiritPosts: map[models.SpiritStatus]int64{}}
	var err error
	if st.Users, err = d.users.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if st.Members, err = d.users.CountDocuments(ctx, bson.M{"membershipExpiresAt": bson.M{"$gt": now}}); err != nil {
		return nil, err
	}
	if st.Posts, err = d.posts.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if st.Screenings, err = d.screenings.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}

	cursor, err := d.spiritPosts.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status models.SpiritStatus `bson:"_id"`
		Count  int64               `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	for _, s := range models.SpiritStatuses {
		st.SpiritPosts[s] = 0
	}
	for _, g := range groups {
		st.SpiritPosts[g.Status] = g.Count
	}
	return st, nil
}
