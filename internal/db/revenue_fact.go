package db

import (
	"context"
	"errors"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SaveRevenueFact inserts one normalized revenue row. Facts are append-only:
// an insert with an existing key fails with DuplicateKeyError instead of
// editing in place; corrections come in as a new normalization pass.
func (db *Database) SaveRevenueFact(ctx context.Context, fact *model.RevenueFactDocument) error {
	_, err := db.collection(model.RevenueFactCollection).InsertOne(ctx, fact)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     fact.ID,
						Message: "revenue fact already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetRevenueFacts(ctx context.Context, chainID string, periodID uint64) ([]*model.RevenueFactDocument, error) {
	filter := bson.M{"chain_id": chainID, "period_id": periodID}

	cursor, err := db.collection(model.RevenueFactCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facts []*model.RevenueFactDocument
	if err := cursor.All(ctx, &facts); err != nil {
		return nil, err
	}
	return facts, nil
}
