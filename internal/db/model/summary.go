package model

import "time"

const CommissionSummaryCollection = "commission_summaries"

// CommissionSummaryDocument aggregates one recompute job's output for the
// statements layer. AgreementFound distinguishes a true zero-revenue range
// from a range where no agreement version was effective.
type CommissionSummaryDocument struct {
	ID                string            `bson:"_id"` // job id
	PartnerID         string            `bson:"partner_id"`
	ChainID           string            `bson:"chain_id"`
	FromPeriod        uint64            `bson:"from_period"`
	ToPeriod          uint64            `bson:"to_period"`
	TotalCommission   string            `bson:"total_commission"`
	ComponentSubtotal map[string]string `bson:"component_subtotals"`
	WalletCount       uint64            `bson:"wallet_count"`
	ValidatorCount    uint64            `bson:"validator_count"`
	AgreementFound    bool              `bson:"agreement_found"`
	ComputedAt        time.Time         `bson:"computed_at"`
}
