package model

import (
	"fmt"
	"time"
)

const PeriodDigestCollection = "period_digests"

// PeriodDigestDocument records the content hash of the inputs that fed the
// last successful computation of a (partner, chain, period). A non-forced
// recompute compares against it and skips periods whose inputs are
// unchanged.
type PeriodDigestDocument struct {
	ID         string    `bson:"_id"` // partner_id:chain_id:period_id
	PartnerID  string    `bson:"partner_id"`
	ChainID    string    `bson:"chain_id"`
	PeriodID   uint64    `bson:"period_id"`
	InputHash  string    `bson:"input_hash"`
	LineCount  uint64    `bson:"line_count"`
	ComputedAt time.Time `bson:"computed_at"`
}

func PeriodDigestKey(partnerID, chainID string, periodID uint64) string {
	return fmt.Sprintf("%s:%s:%d", partnerID, chainID, periodID)
}
