package db

import (
	"context"
	"errors"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReplaceCommissionLines atomically swaps the computed line set of one
// (partner, chain, period) for a fresh one and records the input digest that
// produced it. Overrides on surviving line keys are carried over onto the
// new lines; the whole swap runs in a single transaction so a cancelled job
// can never leave a half-written period behind.
func (db *Database) ReplaceCommissionLines(
	ctx context.Context,
	partnerID, chainID string,
	periodID uint64,
	lines []*model.CommissionLineDocument,
	digest *model.PeriodDigestDocument,
) error {
	session, err := db.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	lineFilter := bson.M{
		"partner_id": partnerID,
		"chain_id":   chainID,
		"period_id":  periodID,
	}

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		collection := db.collection(model.CommissionLineCollection)

		// Collect overrides from the outgoing line set before dropping it
		cursor, err := collection.Find(sessCtx, bson.M{
			"partner_id": partnerID,
			"chain_id":   chainID,
			"period_id":  periodID,
			"override":   bson.M{"$ne": nil},
		})
		if err != nil {
			return nil, err
		}
		var overridden []*model.CommissionLineDocument
		if err := cursor.All(sessCtx, &overridden); err != nil {
			return nil, err
		}

		overrides := make(map[string]*model.CommissionOverride, len(overridden))
		for _, line := range overridden {
			overrides[line.ID] = line.Override
		}

		if _, err := collection.DeleteMany(sessCtx, lineFilter); err != nil {
			return nil, err
		}

		if len(lines) > 0 {
			docs := make([]interface{}, len(lines))
			for i, line := range lines {
				if ov, ok := overrides[line.ID]; ok {
					line.Override = ov
					line.FinalAmount = ov.Amount
				}
				docs[i] = line
			}
			if _, err := collection.InsertMany(sessCtx, docs); err != nil {
				return nil, err
			}
		}

		digestFilter := bson.M{"_id": digest.ID}
		digestUpdate := bson.M{"$set": digest}
		opts := options.Update().SetUpsert(true)
		if _, err := db.collection(model.PeriodDigestCollection).
			UpdateOne(sessCtx, digestFilter, digestUpdate, opts); err != nil {
			return nil, err
		}

		return nil, nil
	})
	return err
}

func (db *Database) GetCommissionLine(ctx context.Context, lineID string) (*model.CommissionLineDocument, error) {
	var result model.CommissionLineDocument
	err := db.collection(model.CommissionLineCollection).
		FindOne(ctx, bson.M{"_id": lineID}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &LineNotFoundError{LineID: lineID}
		}
		return nil, err
	}
	return &result, nil
}

func (db *Database) GetCommissionLines(
	ctx context.Context,
	partnerID, chainID string,
	fromPeriod, toPeriod uint64,
) ([]*model.CommissionLineDocument, error) {
	filter := bson.M{
		"partner_id": partnerID,
		"chain_id":   chainID,
		"period_id":  bson.M{"$gte": fromPeriod, "$lte": toPeriod},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "period_id", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := db.collection(model.CommissionLineCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.CommissionLineDocument
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SetCommissionLineOverride attaches an override and makes it the final
// amount. The pre-override amount is untouched.
func (db *Database) SetCommissionLineOverride(ctx context.Context, lineID string, override *model.CommissionOverride) error {
	update := bson.M{"$set": bson.M{
		"override":     override,
		"final_amount": override.Amount,
	}}

	res := db.collection(model.CommissionLineCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": lineID}, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &LineNotFoundError{LineID: lineID}
		}
		return res.Err()
	}
	return nil
}

// ClearCommissionLineOverride drops the override and restores the computed
// amount as final.
func (db *Database) ClearCommissionLineOverride(ctx context.Context, lineID string) error {
	line, err := db.GetCommissionLine(ctx, lineID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$unset": bson.M{"override": ""},
		"$set":   bson.M{"final_amount": line.PreOverride},
	}

	res := db.collection(model.CommissionLineCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": lineID}, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &LineNotFoundError{LineID: lineID}
		}
		return res.Err()
	}
	return nil
}

func (db *Database) GetPeriodDigest(ctx context.Context, partnerID, chainID string, periodID uint64) (*model.PeriodDigestDocument, error) {
	key := model.PeriodDigestKey(partnerID, chainID, periodID)

	var result model.PeriodDigestDocument
	err := db.collection(model.PeriodDigestCollection).
		FindOne(ctx, bson.M{"_id": key}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     key,
				Message: "period digest not found",
			}
		}
		return nil, err
	}
	return &result, nil
}
