package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type settingDoc struct {
	Key       string   `bson:"_id"`
	Value     bson.Raw `bson:"value"`
	UpdatedAt int64    `bson:"updatedAt"`
}

func (d *DB) GetSetting(ctx context.Context, key string, out interface{}) error {
	var doc settingDoc
	if err := findOne(ctx, d.settings, bson.M{"_id": key}, &doc); err != nil {
		return err
	}
	return bson.Unmarshal(doc.Value, out)
}

func (d *DB) PutSetting(ctx context.Context, key string, value interface{}, now int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := d.settings.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value, "updatedAt": now}},
		options.Update().SetUpsert(true),
	)
	return err
}
