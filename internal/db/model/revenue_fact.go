package model

import (
	"fmt"

	"github.com/introfi/commission-engine/internal/types"
)

const RevenueFactCollection = "revenue_facts"

// RevenueFactDocument is one normalized revenue row per
// (chain, period, validator, component). Amounts are decimal strings in the
// chain's smallest native unit; rows are append-only, corrections arrive as
// a new normalization pass keyed by a higher pass number.
type RevenueFactDocument struct {
	ID           string `bson:"_id"` // chain_id:period_id:validator_key:component
	ChainID      string `bson:"chain_id"`
	PeriodID     uint64 `bson:"period_id"`
	ValidatorKey string `bson:"validator_key"`
	Component    string `bson:"component"`
	Amount       string `bson:"amount"`
	Pass         uint32 `bson:"pass"`
}

func RevenueFactKey(chainID string, periodID uint64, validatorKey string, component types.RevenueComponent) string {
	return fmt.Sprintf("%s:%d:%s:%s", chainID, periodID, validatorKey, component)
}

func NewRevenueFactDocument(
	chainID string,
	periodID uint64,
	validatorKey string,
	component types.RevenueComponent,
	amount string,
) *RevenueFactDocument {
	return &RevenueFactDocument{
		ID:           RevenueFactKey(chainID, periodID, validatorKey, component),
		ChainID:      chainID,
		PeriodID:     periodID,
		ValidatorKey: validatorKey,
		Component:    component.String(),
		Amount:       amount,
	}
}
