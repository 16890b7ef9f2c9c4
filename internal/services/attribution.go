package services

import (
	"context"
	"fmt"
	"sort"

	"cosmossdk.io/math"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/metrics"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// periodComputation holds the frozen inputs for attributing one partner
// over one period. The stake aggregates are computed once up front so every
// validator unit reads the same totals; nothing here is mutated after
// construction, which is what makes the units safe to run in parallel.
type periodComputation struct {
	partnerID      string
	chainID        string
	snap           *PeriodSnapshot
	agreement      *model.AgreementDocument
	totalStake     map[string]math.Int
	partnerStake   map[string]math.Int
	partnerWallets map[string]struct{}
}

// unitResult is the output of one (chain, period, validator) unit of work
type unitResult struct {
	Lines       []*model.CommissionLineDocument
	Diagnostics []string
}

func newPeriodComputation(
	ctx context.Context,
	partnerID string,
	agreement *model.AgreementDocument,
	snap *PeriodSnapshot,
) *periodComputation {
	total, partner, wallets := eligibleStakeByValidator(ctx, snap, partnerID, snap.Period.StartTime)
	return &periodComputation{
		partnerID:      partnerID,
		chainID:        snap.Period.ChainID,
		snap:           snap,
		agreement:      agreement,
		totalStake:     total,
		partnerStake:   partner,
		partnerWallets: wallets,
	}
}

// agreementFound reports whether any agreement version is effective at the
// period start. Distinguishes "no agreement" from a true zero-revenue
// period in the summary.
func (pc *periodComputation) agreementFound() bool {
	return pc.agreement != nil && pc.agreement.VersionAt(pc.snap.Period.StartTime) != nil
}

// computeValidator attributes every revenue component of one validator in
// the period. Components are processed in sorted order and rules in rule
// order, so the emitted line sequence is deterministic for fixed inputs.
func (pc *periodComputation) computeValidator(ctx context.Context, validatorKey string) (unitResult, error) {
	var result unitResult

	factsByComponent := make(map[string]*model.RevenueFactDocument)
	var components []string
	for _, fact := range pc.snap.Facts {
		if fact.ValidatorKey != validatorKey {
			continue
		}
		factsByComponent[fact.Component] = fact
		components = append(components, fact.Component)
	}
	sort.Strings(components)

	periodStart := pc.snap.Period.StartTime
	for _, componentStr := range components {
		component, err := types.ParseRevenueComponent(componentStr)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(
				"validator %s: skipping fact with unknown component %q", validatorKey, componentStr))
			metrics.IncDiagnostic("unknown_component")
			continue
		}

		fact := factsByComponent[componentStr]
		factAmount, ok := math.NewIntFromString(fact.Amount)
		if !ok || factAmount.IsNegative() {
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(
				"validator %s: skipping fact %s with invalid amount %q", validatorKey, fact.ID, fact.Amount))
			metrics.IncDiagnostic("invalid_fact_amount")
			continue
		}

		version, rules := resolveRules(pc.agreement, pc.chainID, validatorKey, periodStart, component)
		for _, rule := range rules {
			base, diag, err := pc.computeBase(ctx, rule, validatorKey, component, factAmount)
			if err != nil {
				return unitResult{}, err
			}
			if diag != "" {
				result.Diagnostics = append(result.Diagnostics, diag)
			}

			amount, err := applyRateAndBounds(base, rule)
			if err != nil {
				return unitResult{}, err
			}

			validator := validatorKey
			line := &model.CommissionLineDocument{
				ID: model.CommissionLineKey(
					pc.partnerID, pc.chainID, pc.snap.Period.PeriodID,
					validatorKey, component.String(), version, rule.Order,
				),
				PartnerID:        pc.partnerID,
				ChainID:          pc.chainID,
				PeriodID:         pc.snap.Period.PeriodID,
				ValidatorKey:     &validator,
				Component:        component.String(),
				Method:           rule.Method,
				AgreementVersion: version,
				RuleOrder:        rule.Order,
				BaseAmount:       base.String(),
				RateBps:          rule.RateBps,
				PreOverride:      amount.String(),
				FinalAmount:      amount.String(),
			}
			result.Lines = append(result.Lines, line)
		}
	}

	return result, nil
}

// computeBase dispatches on the rule's attribution method. The returned
// diagnostic, when non-empty, records a degraded-to-zero anomaly that does
// not fail the job.
func (pc *periodComputation) computeBase(
	ctx context.Context,
	rule model.AgreementRule,
	validatorKey string,
	component types.RevenueComponent,
	factAmount math.Int,
) (math.Int, string, error) {
	method, err := types.ParseAttributionMethod(rule.Method)
	if err != nil {
		return math.ZeroInt(), "", &types.InvalidRuleError{
			RuleOrder: rule.Order,
			Message:   err.Error(),
		}
	}

	switch method {
	case types.MethodFixedShare:
		// Flat share of total component revenue, wallet-independent
		return factAmount, "", nil

	case types.MethodStakeWeight:
		return pc.stakeWeightedBase(ctx, validatorKey, factAmount)

	case types.MethodClientRevenue:
		base, found := pc.clientRevenueBase(validatorKey, component)
		if found {
			return base, "", nil
		}
		// No staker-level detail for this component: degrade to the
		// proportional formula.
		return pc.stakeWeightedBase(ctx, validatorKey, factAmount)
	}

	return math.ZeroInt(), "", &types.InvalidRuleError{
		RuleOrder: rule.Order,
		Message:   fmt.Sprintf("unhandled attribution method %q", rule.Method),
	}
}

// stakeWeightedBase scales the fact amount by the partner's share of the
// validator's eligible stake. Multiply before divide keeps the integer
// truncation to a single, final step; zero total stake yields zero base
// instead of a division error.
func (pc *periodComputation) stakeWeightedBase(ctx context.Context, validatorKey string, factAmount math.Int) (math.Int, string, error) {
	total, ok := pc.totalStake[validatorKey]
	if !ok || total.IsZero() {
		diag := fmt.Sprintf("validator %s: zero total active stake in period %d, stake-weighted base degraded to zero",
			validatorKey, pc.snap.Period.PeriodID)
		log.Ctx(ctx).Warn().
			Str("validator_key", validatorKey).
			Uint64("period_id", pc.snap.Period.PeriodID).
			Msg("Zero total active stake for stake-weighted attribution")
		metrics.IncDiagnostic("zero_total_stake")
		return math.ZeroInt(), diag, nil
	}

	partner, ok := pc.partnerStake[validatorKey]
	if !ok || partner.IsZero() {
		return math.ZeroInt(), "", nil
	}

	return factAmount.Mul(partner).Quo(total), "", nil
}

// clientRevenueBase sums staker-level reward detail over the partner's
// wallets. The second return reports whether any detail rows exist for the
// (validator, component) at all.
func (pc *periodComputation) clientRevenueBase(validatorKey string, component types.RevenueComponent) (math.Int, bool) {
	base := math.ZeroInt()
	found := false
	asOf := pc.snap.Period.StartTime

	for _, reward := range pc.snap.StakerRewards {
		if reward.ValidatorKey != validatorKey || reward.Component != component.String() {
			continue
		}
		found = true
		if pc.snap.partnerForWallet(reward.StakerWallet, asOf) != pc.partnerID {
			continue
		}
		amount, ok := math.NewIntFromString(reward.Amount)
		if !ok {
			continue
		}
		base = base.Add(amount)
	}
	return base, found
}

// applyRateAndBounds converts a base amount into commission: a truncating
// basis-point multiplication, then cap, then floor. The floor only applies
// to a positive base so it can never manufacture commission from nothing.
func applyRateAndBounds(base math.Int, rule model.AgreementRule) (math.Int, error) {
	if rule.RateBps > 10000 {
		return math.ZeroInt(), &types.InvalidRuleError{
			RuleOrder: rule.Order,
			Message:   fmt.Sprintf("rate %d bps out of range", rule.RateBps),
		}
	}

	amount := base.MulRaw(int64(rule.RateBps)).QuoRaw(10000)

	if rule.Cap != nil {
		capAmount, ok := math.NewIntFromString(*rule.Cap)
		if !ok {
			return math.ZeroInt(), &types.InvalidRuleError{
				RuleOrder: rule.Order,
				Message:   fmt.Sprintf("unparseable cap %q", *rule.Cap),
			}
		}
		amount = math.MinInt(amount, capAmount)
	}

	if rule.Floor != nil && base.IsPositive() {
		floorAmount, ok := math.NewIntFromString(*rule.Floor)
		if !ok {
			return math.ZeroInt(), &types.InvalidRuleError{
				RuleOrder: rule.Order,
				Message:   fmt.Sprintf("unparseable floor %q", *rule.Floor),
			}
		}
		amount = math.MaxInt(amount, floorAmount)
	}

	return amount, nil
}
