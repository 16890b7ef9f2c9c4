package db

import (
	"context"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) SaveOverrideEvent(ctx context.Context, event *model.OverrideEventDocument) error {
	_, err := db.collection(model.OverrideEventCollection).InsertOne(ctx, event)
	return err
}

// GetLatestOverrideEvent returns the newest audit event for a line, or a
// NotFoundError when the line has never been overridden. Used to chain the
// next event's hash.
func (db *Database) GetLatestOverrideEvent(ctx context.Context, lineID string) (*model.OverrideEventDocument, error) {
	filter := bson.M{"line_id": lineID}
	opts := options.FindOne().SetSort(bson.M{"timestamp": -1})

	var result model.OverrideEventDocument
	err := db.collection(model.OverrideEventCollection).FindOne(ctx, filter, opts).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     lineID,
				Message: "no override events for line",
			}
		}
		return nil, err
	}
	return &result, nil
}

func (db *Database) GetOverrideEvents(ctx context.Context, lineID string) ([]*model.OverrideEventDocument, error) {
	filter := bson.M{"line_id": lineID}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})

	cursor, err := db.collection(model.OverrideEventCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.OverrideEventDocument
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
