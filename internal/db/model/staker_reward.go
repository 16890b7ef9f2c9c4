package model

import (
	"fmt"

	"github.com/introfi/commission-engine/internal/types"
)

const StakerRewardCollection = "staker_rewards"

// StakerRewardDocument is per-staker reward detail for one component, only
// present when the normalization layer has staker-level granularity. The
// CLIENT_REVENUE method prefers these rows and falls back to the
// stake-weight formula when they are absent.
type StakerRewardDocument struct {
	ID           string `bson:"_id"` // chain_id:period_id:validator_key:staker_wallet:component
	ChainID      string `bson:"chain_id"`
	PeriodID     uint64 `bson:"period_id"`
	ValidatorKey string `bson:"validator_key"`
	StakerWallet string `bson:"staker_wallet"`
	Component    string `bson:"component"`
	Amount       string `bson:"amount"`
}

func StakerRewardKey(chainID string, periodID uint64, validatorKey, stakerWallet string, component types.RevenueComponent) string {
	return fmt.Sprintf("%s:%d:%s:%s:%s", chainID, periodID, validatorKey, stakerWallet, component)
}
