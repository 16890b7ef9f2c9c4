package db

import (
	"context"
	"errors"
	"time"

	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) SaveRecomputeJob(ctx context.Context, job *model.RecomputeJobDocument) error {
	_, err := db.collection(model.RecomputeJobCollection).InsertOne(ctx, job)
	return err
}

func (db *Database) UpdateRecomputeJobStatus(
	ctx context.Context,
	jobID string,
	status types.JobStatus,
	failureReason string,
) error {
	updateFields := bson.M{"status": status.String()}
	if failureReason != "" {
		updateFields["failure_reason"] = failureReason
	}
	if status == types.JobStatusSuccess || status == types.JobStatusFailed {
		updateFields["finished_at"] = time.Now().UTC()
	}

	res := db.collection(model.RecomputeJobCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": jobID}, bson.M{"$set": updateFields})
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     jobID,
				Message: "recompute job not found",
			}
		}
		return res.Err()
	}
	return nil
}

// UpdateRecomputeJobProgress bumps the counters and appends diagnostics
// gathered while processing one period.
func (db *Database) UpdateRecomputeJobProgress(
	ctx context.Context,
	jobID string,
	periodsProcessed, periodsSkipped, linesWritten uint64,
	diagnostics []string,
) error {
	update := bson.M{
		"$inc": bson.M{
			"periods_processed": int64(periodsProcessed),
			"periods_skipped":   int64(periodsSkipped),
			"lines_written":     int64(linesWritten),
		},
	}
	if len(diagnostics) > 0 {
		update["$push"] = bson.M{"diagnostics": bson.M{"$each": diagnostics}}
	}

	res := db.collection(model.RecomputeJobCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": jobID}, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     jobID,
				Message: "recompute job not found",
			}
		}
		return res.Err()
	}
	return nil
}

func (db *Database) GetRecomputeJob(ctx context.Context, jobID string) (*model.RecomputeJobDocument, error) {
	var result model.RecomputeJobDocument
	err := db.collection(model.RecomputeJobCollection).
		FindOne(ctx, bson.M{"_id": jobID}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     jobID,
				Message: "recompute job not found",
			}
		}
		return nil, err
	}
	return &result, nil
}

func (db *Database) SaveCommissionSummary(ctx context.Context, summary *model.CommissionSummaryDocument) error {
	_, err := db.collection(model.CommissionSummaryCollection).InsertOne(ctx, summary)
	return err
}
