package database

import (
	"context"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (d *DB) CreateSpiritPost(ctx context.Context, p *models.SpiritPost) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.Version = 1
	return insertOne(ctx, d.spiritPosts, p)
}

func (d *DB) GetSpiritPost(ctx context.Context, id primitive.ObjectID) (*models.SpiritPost, error) {
	var p models.SpiritPost
	if err := findOne(ctx, d.spiritPosts, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) UpdateSpiritPost(ctx context.Context, p *models.SpiritPost) error {
	expected := p.Version
	next := *p
	next.Version = expected + 1

	err := replaceOne(ctx, d.spiritPosts, bson.M{"_id": p.ID, "version": expected}, &next)
	if err == store.ErrNotFound {
		if _, getErr := d.GetSpiritPost(ctx, p.ID); getErr != nil {
			return getErr
		}
		return store.ErrConflict
	}
	if err != nil {
		return err
	}
	p.Version = next.Version
	return nil
}

func (d *DB) DeleteSpiritPost(ctx context.Context, id primitive.ObjectID) error {
	err := deleteOne(ctx, d.spiritPosts, bson.M{"_id": id, "status": bson.M{"$ne": models.SpiritClaimed}})
	if err == store.ErrNotFound {
		if _, getErr := d.GetSpiritPost(ctx, id); getErr != nil {
			return getErr
		}
		return store.ErrConflict
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err = d.spiritMsgs.DeleteMany(ctx, bson.M{"spiritPostId": id})
	return err
}

func (d *DB) ListSpiritPosts(ctx context.Context, f store.SpiritFilter, p store.Page) ([]models.SpiritPost, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AuthorID != nil {
		filter["authorId"] = *f.AuthorID
	}
	if f.ClaimerID != nil {
		filter["claimerId"] = *f.ClaimerID
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	posts := []models.SpiritPost{}
	total, err := paginate(ctx, d.spiritPosts, filter, newestFirst, p, &posts)
	return posts, total, err
}

func (d *DB) CreateSpiritMessage(ctx context.Context, m *models.SpiritMessage) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.spiritMsgs, m)
}

// ListSpiritMessages pages through a thread oldest first, like a chat transcript.
func (d *DB) ListSpiritMessages(ctx context.Context, postID primitive.ObjectID, p store.Page) ([]models.SpiritMessage, int64, error) {
	msgs := []models.SpiritMessage{}
	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	total, err := paginate(ctx, d.spiritMsgs, bson.M{"spiritPostId": postID}, sort, p, &msgs)
	return msgs, total, err
}

func (d *DB) MarkSpiritMessagesRead(ctx context.Context, postID, fromID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := d.spiritMsgs.UpdateMany(ctx,
		bson.M{"spiritPostId": postID, "senderId": fromID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
