package db

import (
	"context"
	"errors"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) SaveStakeEvent(ctx context.Context, event *model.StakeEventDocument) error {
	_, err := db.collection(model.StakeEventCollection).InsertOne(ctx, event)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     event.ID,
						Message: "stake event already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetStakeEvents(ctx context.Context, chainID string, periodID uint64) ([]*model.StakeEventDocument, error) {
	filter := bson.M{"chain_id": chainID, "period_id": periodID}
	return db.findStakeEvents(ctx, filter)
}

func (db *Database) GetStakeEventsByValidator(ctx context.Context, chainID string, periodID uint64, validatorKey string) ([]*model.StakeEventDocument, error) {
	filter := bson.M{"chain_id": chainID, "period_id": periodID, "validator_key": validatorKey}
	return db.findStakeEvents(ctx, filter)
}

func (db *Database) findStakeEvents(ctx context.Context, filter bson.M) ([]*model.StakeEventDocument, error) {
	cursor, err := db.collection(model.StakeEventCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.StakeEventDocument
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *Database) SaveStakerReward(ctx context.Context, reward *model.StakerRewardDocument) error {
	_, err := db.collection(model.StakerRewardCollection).InsertOne(ctx, reward)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     reward.ID,
						Message: "staker reward already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetStakerRewards(ctx context.Context, chainID string, periodID uint64, validatorKey string) ([]*model.StakerRewardDocument, error) {
	filter := bson.M{"chain_id": chainID, "period_id": periodID, "validator_key": validatorKey}

	cursor, err := db.collection(model.StakerRewardCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rewards []*model.StakerRewardDocument
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}
