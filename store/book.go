package store

import (
	"context"

	"github.com/bookifyapp/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// PublishedBooks returns all published books, newest first.
func (db *DB) PublishedBooks(ctx context.Context) ([]models.Book, error) {
	return db.findBooks(ctx, bson.M{"status": models.StatusPublished})
}

// BooksByAuthor returns all of an author's books regardless of status.
func (db *DB) BooksByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Book, error) {
	return db.findBooks(ctx, bson.M{"author": author})
}

// SearchPublishedBooks matches the query as a case-insensitive substring of
// title or description, restricted to published books.
func (db *DB) SearchPublishedBooks(ctx context.Context, query string) ([]models.Book, error) {
	filter := bson.M{
		"status": models.StatusPublished,
		"$or": bson.A{
			bson.M{"title": bson.M{"$regex": primitive.Regex{Pattern: query, Options: "i"}}},
			bson.M{"description": bson.M{"$regex": primitive.Regex{Pattern: query, Options: "i"}}},
		},
	}
	return db.findBooks(ctx, filter)
}

func (db *DB) findBooks(ctx context.Context, filter bson.M) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// BookByID returns the book or nil when absent.
func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// SaveBook replaces the whole aggregate, guarded by the version loaded with
// it. Returns ErrStale when a concurrent writer got there first.
func (db *DB) SaveBook(ctx context.Context, book *models.Book) error {
	loaded := book.Version
	book.Version = loaded + 1
	res, err := db.Books().ReplaceOne(ctx, bson.M{"_id": book.ID, "version": loaded}, book)
	if err != nil {
		book.Version = loaded
		return err
	}
	if res.MatchedCount == 0 {
		book.Version = loaded
		return ErrStale
	}
	return nil
}
