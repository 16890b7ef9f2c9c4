package db

import (
	"context"
	"time"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PartnerStatsResult struct {
	PartnerID       string
	TotalCommission string
	TotalLines      uint64
	OverriddenLines uint64
}

// CalculateCommissionStatsAggregated computes overall and per-partner
// commission totals with an aggregation pipeline instead of loading every
// line into memory. Final amounts are stored as decimal strings, so they
// are converted to Decimal128 inside the pipeline.
func (db *Database) CalculateCommissionStatsAggregated(ctx context.Context) (string, uint64, []*PartnerStatsResult, error) {
	collection := db.collection(model.CommissionLineCollection)

	overallPipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":         nil,
				"total":       bson.M{"$sum": bson.M{"$toDecimal": "$final_amount"}},
				"total_lines": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, overallPipeline)
	if err != nil {
		return "0", 0, nil, err
	}
	defer cursor.Close(ctx)

	overallTotal := "0"
	var overallLines uint64

	if cursor.Next(ctx) {
		var result struct {
			Total      primitive.Decimal128 `bson:"total"`
			TotalLines uint64               `bson:"total_lines"`
		}
		if err := cursor.Decode(&result); err != nil {
			return "0", 0, nil, err
		}
		overallTotal = result.Total.String()
		overallLines = result.TotalLines
	}

	if overallLines == 0 {
		return "0", 0, []*PartnerStatsResult{}, nil
	}

	partnerPipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":         "$partner_id",
				"total":       bson.M{"$sum": bson.M{"$toDecimal": "$final_amount"}},
				"total_lines": bson.M{"$sum": 1},
				"overridden": bson.M{"$sum": bson.M{
					"$cond": bson.A{bson.M{"$ifNull": bson.A{"$override", false}}, 1, 0},
				}},
			},
		},
	}

	partnerCursor, err := collection.Aggregate(ctx, partnerPipeline)
	if err != nil {
		return "0", 0, nil, err
	}
	defer partnerCursor.Close(ctx)

	var partnerStatsRaw []struct {
		PartnerID  string               `bson:"_id"`
		Total      primitive.Decimal128 `bson:"total"`
		TotalLines uint64               `bson:"total_lines"`
		Overridden uint64               `bson:"overridden"`
	}
	if err := partnerCursor.All(ctx, &partnerStatsRaw); err != nil {
		return "0", 0, nil, err
	}

	partnerStats := make([]*PartnerStatsResult, len(partnerStatsRaw))
	for i, raw := range partnerStatsRaw {
		partnerStats[i] = &PartnerStatsResult{
			PartnerID:       raw.PartnerID,
			TotalCommission: raw.Total.String(),
			TotalLines:      raw.TotalLines,
			OverriddenLines: raw.Overridden,
		}
	}

	return overallTotal, overallLines, partnerStats, nil
}

func (db *Database) UpsertOverallStats(ctx context.Context, totalCommission string, totalLines, partnerCount uint64) error {
	filter := bson.M{"_id": "overall_stats"}
	update := bson.M{"$set": &model.OverallStatsDocument{
		ID:              "overall_stats",
		TotalCommission: totalCommission,
		TotalLines:      totalLines,
		PartnerCount:    partnerCount,
		LastUpdated:     time.Now().Unix(),
	}}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.OverallStatsCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) UpsertPartnerStats(ctx context.Context, stats *PartnerStatsResult) error {
	filter := bson.M{"_id": stats.PartnerID}
	update := bson.M{"$set": &model.PartnerStatsDocument{
		PartnerID:       stats.PartnerID,
		TotalCommission: stats.TotalCommission,
		TotalLines:      stats.TotalLines,
		OverriddenLines: stats.OverriddenLines,
		LastUpdated:     time.Now().Unix(),
	}}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.PartnerStatsCollection).UpdateOne(ctx, filter, update, opts)
	return err
}
