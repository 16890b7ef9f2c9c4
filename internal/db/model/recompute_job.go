package model

import (
	"time"

	"github.com/introfi/commission-engine/internal/types"
)

const RecomputeJobCollection = "recompute_jobs"

// RecomputeJobDocument tracks one attribution run over a period range.
// Diagnostics collect per-unit anomalies (missing stake rows, zero-stake
// divisions) that degrade to zero contribution without failing the job.
type RecomputeJobDocument struct {
	ID               string     `bson:"_id"` // uuid
	PartnerID        string     `bson:"partner_id"`
	ChainID          string     `bson:"chain_id"`
	FromPeriod       uint64     `bson:"from_period"`
	ToPeriod         uint64     `bson:"to_period"`
	Force            bool       `bson:"force"`
	Status           string     `bson:"status"`
	PeriodsProcessed uint64     `bson:"periods_processed"`
	PeriodsSkipped   uint64     `bson:"periods_skipped"`
	LinesWritten     uint64     `bson:"lines_written"`
	Diagnostics      []string   `bson:"diagnostics,omitempty"`
	FailureReason    string     `bson:"failure_reason,omitempty"`
	StartedAt        time.Time  `bson:"started_at"`
	FinishedAt       *time.Time `bson:"finished_at,omitempty"`
}

func NewRecomputeJobDocument(id, partnerID, chainID string, from, to uint64, force bool) *RecomputeJobDocument {
	return &RecomputeJobDocument{
		ID:         id,
		PartnerID:  partnerID,
		ChainID:    chainID,
		FromPeriod: from,
		ToPeriod:   to,
		Force:      force,
		Status:     types.JobStatusPending.String(),
		StartedAt:  time.Now().UTC(),
	}
}
