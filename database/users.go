package database

import (
	"context"
	"regexp"
	"strings"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	return insertOne(ctx, d.users, u)
}

func (d *DB) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, d.users, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DB) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	out := make(map[primitive.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := findAll(ctx, d.users, bson.M{"_id": bson.M{"$in": ids}}, nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (d *DB) FindUserByAccount(ctx context.Context, account string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(account)},
		bson.M{"username": account},
	}}
	var u models.User
	if err := findOne(ctx, d.users, filter, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func userSet(upd store.UserUpdate, now int64) bson.M {
	set := bson.M{"updatedAt": now}
	if upd.Nickname != nil {
		set["nickname"] = *upd.Nickname
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.PasswordHash != nil {
		set["passwordHash"] = *upd.PasswordHash
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.Disabled != nil {
		set["disabled"] = *upd.Disabled
	}
	if upd.MembershipLevel != nil {
		set["membershipLevel"] = *upd.MembershipLevel
	}
	if upd.MembershipExpiresAt != nil {
		set["membershipExpiresAt"] = *upd.MembershipExpiresAt
	}
	if upd.LastLoginAt != nil {
		set["lastLoginAt"] = *upd.LastLoginAt
	}
	return set
}

func (d *DB) UpdateUser(ctx context.Context, id primitive.ObjectID, upd store.UserUpdate, now int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := d.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": userSet(upd, now)}, opts).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (d *DB) ListUsers(ctx context.Context, query string, p store.Page) ([]models.User, int64, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"email": re}, bson.M{"username": re}, bson.M{"nickname": re}}
	}
	users := []models.User{}
	total, err := paginate(ctx, d.users, filter, newestFirst, p, &users)
	return users, total, err
}

// ExtendMembership uses an update pipeline so the max(now, expiry)+days computation
// happens on the server in one write.
func (d *DB) ExtendMembership(ctx context.Context, id primitive.ObjectID, level string, days int, now int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "membershipExpiresAt", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$max", Value: bson.A{now, bson.D{{Key: "$ifNull", Value: bson.A{"$membershipExpiresAt", 0}}}}}},
				int64(days) * 86400,
			}}}},
			{Key: "membershipLevel", Value: level},
			{Key: "updatedAt", Value: now},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := d.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (d *DB) ClearExpiredMemberships(ctx context.Context, now int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := d.users.UpdateMany(ctx,
		bson.M{"membershipLevel": bson.M{"$nin": bson.A{"", nil}}, "membershipExpiresAt": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"membershipLevel": "", "updatedAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
