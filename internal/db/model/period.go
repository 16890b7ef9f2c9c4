package model

import (
	"fmt"
	"time"
)

const PeriodCollection = "periods"

// PeriodDocument is a chain-scoped settlement window. Immutable once
// finalized; the attribution engine only ever computes over finalized
// periods.
type PeriodDocument struct {
	ID        string    `bson:"_id"` // chain_id:period_id
	ChainID   string    `bson:"chain_id"`
	PeriodID  uint64    `bson:"period_id"`
	StartTime time.Time `bson:"start_time"`
	EndTime   time.Time `bson:"end_time"`
	Finalized bool      `bson:"finalized"`
}

func PeriodKey(chainID string, periodID uint64) string {
	return fmt.Sprintf("%s:%d", chainID, periodID)
}

func NewPeriodDocument(chainID string, periodID uint64, start, end time.Time, finalized bool) *PeriodDocument {
	return &PeriodDocument{
		ID:        PeriodKey(chainID, periodID),
		ChainID:   chainID,
		PeriodID:  periodID,
		StartTime: start,
		EndTime:   end,
		Finalized: finalized,
	}
}
