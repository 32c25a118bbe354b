package store

import (
	"context"

	"github.com/bookifyapp/server/models"
)

func (db *DB) InsertEmailLog(ctx context.Context, entry *models.EmailLog) error {
	_, err := db.EmailLogs().InsertOne(ctx, entry)
	return err
}
