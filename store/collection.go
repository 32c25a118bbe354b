package store

import (
	"context"

	"github.com/bookifyapp/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertCollection(ctx context.Context, c *models.Collection) (primitive.ObjectID, error) {
	res, err := db.Collections().InsertOne(ctx, c, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// CollectionsByUser returns all of a user's collections, oldest first so the
// default Bookmarks collection stays on top.
func (db *DB) CollectionsByUser(ctx context.Context, user primitive.ObjectID) ([]models.Collection, error) {
	cur, err := db.Collections().Find(ctx, bson.M{"user": user}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	collections := []models.Collection{}
	if err := cur.All(ctx, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// CollectionByID returns the collection or nil when absent.
func (db *DB) CollectionByID(ctx context.Context, id primitive.ObjectID) (*models.Collection, error) {
	var c models.Collection
	err := db.Collections().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCollectionByUser returns the user's non-deletable Bookmarks
// collection, or nil when it does not exist yet.
func (db *DB) DefaultCollectionByUser(ctx context.Context, user primitive.ObjectID) (*models.Collection, error) {
	var c models.Collection
	err := db.Collections().FindOne(ctx, bson.M{"user": user, "deletable": false}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCollection replaces the whole aggregate, guarded by the version loaded
// with it. Returns ErrStale when a concurrent writer got there first.
func (db *DB) SaveCollection(ctx context.Context, c *models.Collection) error {
	loaded := c.Version
	c.Version = loaded + 1
	res, err := db.Collections().ReplaceOne(ctx, bson.M{"_id": c.ID, "version": loaded}, c)
	if err != nil {
		c.Version = loaded
		return err
	}
	if res.MatchedCount == 0 {
		c.Version = loaded
		return ErrStale
	}
	return nil
}

func (db *DB) DeleteCollection(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Collections().DeleteOne(ctx, bson.M{"_id": id})
	return err
}
