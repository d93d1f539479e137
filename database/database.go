package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const opTimeout = 10 * time.Second

// DB is the MongoDB implementation of store.Store.
type DB struct {
	Client *mongo.Client
	Name   string
	log    *zap.Logger

	users       *mongo.Collection
	posts       *mongo.Collection
	postLikes   *mongo.Collection
	aiPlatforms *mongo.Collection
	products    *mongo.Collection
	codes       *mongo.Collection
	spiritPosts *mongo.Collection
	spiritMsgs  *mongo.Collection
	screenings  *mongo.Collection
	comments    *mongo.Collection
	socialMedia *mongo.Collection
	settings    *mongo.Collection
	pushSubs    *mongo.Collection
}

var _ store.Store = (*DB)(nil)

// Connect dials MongoDB with up to three attempts.
func Connect(ctx context.Context, uri, name string, log *zap.Logger) (*DB, error) {
	var client *mongo.Client
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		client, err = dial(ctx, uri)
		if err == nil {
			break
		}
		log.Warn("mongo connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	db := client.Database(name)
	log.Info("connected to mongo", zap.String("database", name))
	return &DB{
		Client:      client,
		Name:        name,
		log:         log,
		users:       db.Collection("users"),
		posts:       db.Collection("posts"),
		postLikes:   db.Collection("post_likes"),
		aiPlatforms: db.Collection("ai_platforms"),
		products:    db.Collection("membership_products"),
		codes:       db.Collection("redemption_codes"),
		spiritPosts: db.Collection("spirit_posts"),
		spiritMsgs:  db.Collection("spirit_messages"),
		screenings:  db.Collection("screenings"),
		comments:    db.Collection("screening_comments"),
		socialMedia: db.Collection("social_media"),
		settings:    db.Collection("settings"),
		pushSubs:    db.Collection("push_subscriptions"),
	}, nil
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.Client.Ping(ctx, nil)
}

func (d *DB) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}
	d.log.Info("disconnected from mongo")
	return nil
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return translate(coll.FindOne(ctx, filter).Decode(out))
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := coll.InsertOne(ctx, doc)
	return translate(err)
}

func replaceOne(ctx context.Context, coll *mongo.Collection, filter interface{}, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// paginate runs a counted, sorted, paged Find into out.
func paginate(ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D, p store.Page, out interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	opts := options.Find().SetSort(sort).SetSkip(p.Skip()).SetLimit(p.Limit())
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return 0, err
	}
	return total, nil
}

var bySortOrder = bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: 1}}
var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func isDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicate)
}
