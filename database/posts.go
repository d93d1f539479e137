package database

import (
	"context"
	"regexp"
	"strings"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (d *DB) CreatePost(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.posts, p)
}

func (d *DB) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := findOne(ctx, d.posts, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePost replaces the editable document but leaves the counters to their $inc updates.
func (d *DB) SavePost(ctx context.Context, p *models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{
		"title":       p.Title,
		"content":     p.Content,
		"contentHtml": p.ContentHTML,
		"media":       p.Media,
		"prompt":      p.Prompt,
		"tags":        p.Tags,
		"membersOnly": p.MembersOnly,
		"status":      p.Status,
		"updatedAt":   p.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if p.PlatformID != nil {
		set["platformId"] = *p.PlatformID
	} else {
		update["$unset"] = bson.M{"platformId": ""}
	}
	res, err := d.posts.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d *DB) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	if err := deleteOne(ctx, d.posts, bson.M{"_id": id}); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.postLikes.DeleteMany(ctx, bson.M{"postId": id})
	return err
}

func postFilter(f store.PostFilter) bson.M {
	filter := bson.M{}
	if f.PlatformID != nil {
		filter["platformId"] = *f.PlatformID
	}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.MediaType != "" {
		filter["media.0.type"] = f.MediaType
	}
	var and bson.A
	if q := strings.TrimSpace(f.Query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{bson.M{"title": re}, bson.M{"content": re}, bson.M{"prompt": re}}})
	}
	if !f.All {
		if f.Viewer != nil {
			and = append(and, bson.M{"$or": bson.A{bson.M{"status": models.PostPublished}, bson.M{"userId": *f.Viewer}}})
		} else {
			filter["status"] = models.PostPublished
		}
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func (d *DB) ListPosts(ctx context.Context, f store.PostFilter, p store.Page) ([]models.Post, int64, error) {
	sort := newestFirst
	if f.Sort == "popular" {
		sort = bson.D{{Key: "likes", Value: -1}, {Key: "views", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	posts := []models.Post{}
	total, err := paginate(ctx, d.posts, postFilter(f), sort, p, &posts)
	return posts, total, err
}

func (d *DB) IncPostViews(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

func (d *DB) CountPostsByPlatform(ctx context.Context, platformID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return d.posts.CountDocuments(ctx, bson.M{"platformId": platformID})
}

// LikePost relies on the unique (postId, userId) index: a duplicate insert means the
// like already exists and the counter is left alone.
func (d *DB) LikePost(ctx context.Context, postID, userID primitive.ObjectID, now int64) (bool, error) {
	like := models.PostLike{ID: primitive.NewObjectID(), PostID: postID, UserID: userID, CreatedAt: now}
	if err := insertOne(ctx, d.postLikes, like); err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"likes": 1}})
	return true, err
}

func (d *DB) UnlikePost(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := d.postLikes.DeleteOne(ctx, bson.M{"postId": postID, "userId": userID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	_, err = d.posts.UpdateOne(ctx, bson.M{"_id": postID, "likes": bson.M{"$gt": 0}}, bson.M{"$inc": bson.M{"likes": -1}})
	return true, err
}

func (d *DB) LikedPostIDs(ctx context.Context, userID primitive.ObjectID, postIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool)
	if len(postIDs) == 0 {
		return out, nil
	}
	var likes []models.PostLike
	if err := findAll(ctx, d.postLikes, bson.M{"userId": userID, "postId": bson.M{"$in": postIDs}}, nil, &likes); err != nil {
		return nil, err
	}
	for _, l := range likes {
		out[l.PostID] = true
	}
	return out, nil
}
