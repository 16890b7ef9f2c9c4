package db

import (
	"context"
	"fmt"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) UpsertPeriod(ctx context.Context, period *model.PeriodDocument) error {
	filter := bson.M{"_id": period.ID}
	update := bson.M{"$set": period}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.PeriodCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) GetPeriod(ctx context.Context, chainID string, periodID uint64) (*model.PeriodDocument, error) {
	key := model.PeriodKey(chainID, periodID)

	var result model.PeriodDocument
	err := db.collection(model.PeriodCollection).
		FindOne(ctx, bson.M{"_id": key}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     key,
				Message: "period not found",
			}
		}
		return nil, err
	}
	return &result, nil
}

func (db *Database) GetPeriodsInRange(ctx context.Context, chainID string, from, to uint64) ([]*model.PeriodDocument, error) {
	filter := bson.M{
		"chain_id":  chainID,
		"period_id": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.M{"period_id": 1})

	cursor, err := db.collection(model.PeriodCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var periods []*model.PeriodDocument
	if err := cursor.All(ctx, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// GetChainIDs returns the distinct chains with at least one known period
func (db *Database) GetChainIDs(ctx context.Context) ([]string, error) {
	raw, err := db.collection(model.PeriodCollection).Distinct(ctx, "chain_id", bson.M{})
	if err != nil {
		return nil, err
	}

	chains := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			chains = append(chains, s)
		}
	}
	return chains, nil
}

func (db *Database) GetLatestFinalizedPeriod(ctx context.Context, chainID string) (*model.PeriodDocument, error) {
	filter := bson.M{"chain_id": chainID, "finalized": true}
	opts := options.FindOne().SetSort(bson.M{"period_id": -1})

	var result model.PeriodDocument
	err := db.collection(model.PeriodCollection).FindOne(ctx, filter, opts).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     chainID,
				Message: fmt.Sprintf("no finalized period for chain %s", chainID),
			}
		}
		return nil, err
	}
	return &result, nil
}
