package model

import (
	"fmt"
	"time"
)

const CommissionLineCollection = "commission_lines"

// CommissionLineDocument is one computed, overridable commission amount for
// a specific (rule, period, validator, component). The pre-override amount
// is replaced on every recompute; the override block, once set, survives
// recomputation until explicitly cleared.
type CommissionLineDocument struct {
	ID               string              `bson:"_id"` // partner:chain:period:validator:component:version:order
	PartnerID        string              `bson:"partner_id"`
	ChainID          string              `bson:"chain_id"`
	PeriodID         uint64              `bson:"period_id"`
	ValidatorKey     *string             `bson:"validator_key,omitempty"` // nil for chain-wide rules
	Component        string              `bson:"component"`
	Method           string              `bson:"method"`
	AgreementVersion uint32              `bson:"agreement_version"`
	RuleOrder        uint32              `bson:"rule_order"`
	BaseAmount       string              `bson:"base_amount"`
	RateBps          uint32              `bson:"rate_bps"`
	PreOverride      string              `bson:"pre_override_amount"`
	Override         *CommissionOverride `bson:"override,omitempty"`
	FinalAmount      string              `bson:"final_amount"`
	ComputedAt       time.Time           `bson:"computed_at"`
	JobID            string              `bson:"job_id"`
}

type CommissionOverride struct {
	Amount    string    `bson:"amount"`
	Reason    string    `bson:"reason"`
	Actor     string    `bson:"actor"`
	AppliedAt time.Time `bson:"applied_at"`
}

func CommissionLineKey(
	partnerID, chainID string,
	periodID uint64,
	validatorKey string,
	component string,
	version uint32,
	ruleOrder uint32,
) string {
	return fmt.Sprintf("%s:%s:%d:%s:%s:%d:%d", partnerID, chainID, periodID, validatorKey, component, version, ruleOrder)
}
