package model

import (
	"context"
	"time"

	"github.com/introfi/commission-engine/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	PeriodCollection: {
		{Indexes: map[string]int{"chain_id": 1, "finalized": 1}},
	},
	RevenueFactCollection: {
		{Indexes: map[string]int{"chain_id": 1, "period_id": 1, "validator_key": 1}},
	},
	StakeEventCollection: {
		{Indexes: map[string]int{"chain_id": 1, "period_id": 1, "validator_key": 1}},
		{Indexes: map[string]int{"chain_id": 1, "period_id": 1, "withdrawer_wallet": 1}},
	},
	StakerRewardCollection: {
		{Indexes: map[string]int{"chain_id": 1, "period_id": 1, "validator_key": 1}},
	},
	PartnerWalletCollection: {
		{Indexes: map[string]int{"partner_id": 1}},
		{Indexes: map[string]int{"chain_id": 1, "wallet": 1}, Unique: true},
	},
	AgreementCollection: {
		{Indexes: map[string]int{"partner_id": 1}},
	},
	CommissionLineCollection: {
		{Indexes: map[string]int{"partner_id": 1, "chain_id": 1, "period_id": 1}},
		{Indexes: map[string]int{"job_id": 1}},
	},
	OverrideEventCollection: {
		{Indexes: map[string]int{"line_id": 1, "timestamp": 1}},
	},
	RecomputeJobCollection: {
		{Indexes: map[string]int{"partner_id": 1, "chain_id": 1}},
		{Indexes: map[string]int{"status": 1}},
	},
	PeriodDigestCollection:      {{Indexes: map[string]int{}}},
	CommissionSummaryCollection: {{Indexes: map[string]int{"partner_id": 1}}},
	OverallStatsCollection:      {{Indexes: map[string]int{}}},
	PartnerStatsCollection:      {{Indexes: map[string]int{}}},
}

// Setup creates the collections and indexes the engine relies on. Safe to
// call repeatedly; index creation is idempotent.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)

	for collection, idxs := range collections {
		if err := createCollection(ctx, database, collection); err != nil {
			return err
		}
		for _, idx := range idxs {
			if len(idx.Indexes) == 0 {
				continue
			}
			if err := createIndex(ctx, database, collection, idx); err != nil {
				return err
			}
		}
	}

	return client.Disconnect(ctx)
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	// CreateCollection errors if it already exists; list first
	names, err := database.ListCollectionNames(ctx, bson.M{"name": collectionName})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}

	return database.CreateCollection(ctx, collectionName)
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	keys := bson.D{}
	for field, direction := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: direction})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	_, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel)
	return err
}
