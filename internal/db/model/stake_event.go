package model

import "fmt"

const StakeEventCollection = "stake_events"

// StakeEventDocument is a per-period snapshot of one stake account on one
// validator. DeactivationPeriod is nil while the stake is still delegated.
// The withdrawer wallet is the economic beneficiary used for partner
// attribution.
type StakeEventDocument struct {
	ID                 string  `bson:"_id"` // chain_id:period_id:validator_key:staker_wallet
	ChainID            string  `bson:"chain_id"`
	PeriodID           uint64  `bson:"period_id"`
	ValidatorKey       string  `bson:"validator_key"`
	StakerWallet       string  `bson:"staker_wallet"`
	WithdrawerWallet   string  `bson:"withdrawer_wallet"`
	Amount             string  `bson:"amount"`
	ActivationPeriod   uint64  `bson:"activation_period"`
	DeactivationPeriod *uint64 `bson:"deactivation_period,omitempty"`
}

func StakeEventKey(chainID string, periodID uint64, validatorKey, stakerWallet string) string {
	return fmt.Sprintf("%s:%d:%s:%s", chainID, periodID, validatorKey, stakerWallet)
}
