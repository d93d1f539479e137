package database

import (
	"context"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (d *DB) CreateProduct(ctx context.Context, p *models.MembershipProduct) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, d.products, p)
}

func (d *DB) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.MembershipProduct, error) {
	var p models.MembershipProduct
	if err := findOne(ctx, d.products, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) FindProductByName(ctx context.Context, name string) (*models.MembershipProduct, error) {
	var p models.MembershipProduct
	if err := findOne(ctx, d.products, bson.M{"name": name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) SaveProduct(ctx context.Context, p *models.MembershipProduct) error {
	return replaceOne(ctx, d.products, bson.M{"_id": p.ID}, p)
}

func (d *DB) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, d.products, bson.M{"_id": id})
}

func (d *DB) ListProducts(ctx context.Context, enabledOnly bool) ([]models.MembershipProduct, error) {
	filter := bson.M{}
	if enabledOnly {
		filter["enabled"] = true
	}
	out := []models.MembershipProduct{}
	err := findAll(ctx, d.products, filter, options.Find().SetSort(bySortOrder), &out)
	return out, err
}

func (d *DB) InsertCodes(ctx context.Context, codes []models.RedemptionCode) error {
	if len(codes) == 0 {
		return nil
	}
	docs := make([]interface{}, len(codes))
	for i := range codes {
		if codes[i].ID.IsZero() {
			codes[i].ID = primitive.NewObjectID()
		}
		docs[i] = codes[i]
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := d.codes.InsertMany(ctx, docs)
	return translate(err)
}

func (d *DB) GetCode(ctx context.Context, code string) (*models.RedemptionCode, error) {
	var c models.RedemptionCode
	if err := findOne(ctx, d.codes, bson.M{"code": code}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) ListCodes(ctx context.Context, f store.CodeFilter, p store.Page) ([]models.RedemptionCode, int64, error) {
	filter := bson.M{}
	if f.BatchID != "" {
		filter["batchId"] = f.BatchID
	}
	if f.ProductID != nil {
		filter["productId"] = *f.ProductID
	}
	if f.Used != nil {
		filter["used"] = *f.Used
	}
	codes := []models.RedemptionCode{}
	total, err := paginate(ctx, d.codes, filter, newestFirst, p, &codes)
	return codes, total, err
}

func (d *DB) DeleteCode(ctx context.Context, id primitive.ObjectID) error {
	err := deleteOne(ctx, d.codes, bson.M{"_id": id, "used": false})
	if err == store.ErrNotFound {
		var c models.RedemptionCode
		if findOne(ctx, d.codes, bson.M{"_id": id}, &c) == nil {
			return store.ErrConflict
		}
	}
	return err
}

// ConsumeCode is a single conditional update, so one code is redeemed at most once
// however many requests race for it.
func (d *DB) ConsumeCode(ctx context.Context, code string, userID primitive.ObjectID, now int64) (*models.RedemptionCode, error) {
	filter := bson.M{
		"code": code,
		"used": false,
		"$or":  bson.A{bson.M{"expiresAt": 0}, bson.M{"expiresAt": bson.M{"$gt": now}}},
	}
	update := bson.M{"$set": bson.M{"used": true, "usedBy": userID, "usedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	cctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c models.RedemptionCode
	err := d.codes.FindOneAndUpdate(cctx, filter, update, opts).Decode(&c)
	if err == nil {
		return &c, nil
	}
	if err = translate(err); err != store.ErrNotFound {
		return nil, err
	}
	if _, err := d.GetCode(ctx, code); err != nil {
		return nil, err
	}
	return nil, store.ErrConflict
}
