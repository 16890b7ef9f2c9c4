package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cosmossdk.io/math"
	"github.com/introfi/commission-engine/internal/db"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// UpsertAgreement validates and stores a partner agreement with its full
// version history. Rules are checked structurally here so a bad rate or
// method is rejected at write time instead of failing recompute jobs later.
func (s *Service) UpsertAgreement(ctx context.Context, agreement *model.AgreementDocument) error {
	if agreement.ID == "" || agreement.PartnerID == "" {
		return fmt.Errorf("agreement id and partner id are required")
	}
	for _, version := range agreement.Versions {
		if version.EffectiveUntil != nil && !version.EffectiveFrom.Before(*version.EffectiveUntil) {
			return fmt.Errorf("agreement version %d: effective range is empty", version.Version)
		}
		for _, rule := range version.Rules {
			if err := validateRule(rule); err != nil {
				return err
			}
		}
	}

	if err := s.db.UpsertAgreement(ctx, agreement); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("agreement_id", agreement.ID).
		Str("partner_id", agreement.PartnerID).
		Int("versions", len(agreement.Versions)).
		Msg("Upserted agreement")
	return nil
}

func validateRule(rule model.AgreementRule) error {
	if _, err := types.ParseRevenueComponent(rule.Component); err != nil {
		return &types.InvalidRuleError{RuleOrder: rule.Order, Message: err.Error()}
	}
	if _, err := types.ParseAttributionMethod(rule.Method); err != nil {
		return &types.InvalidRuleError{RuleOrder: rule.Order, Message: err.Error()}
	}
	if rule.RateBps > 10000 {
		return &types.InvalidRuleError{
			RuleOrder: rule.Order,
			Message:   fmt.Sprintf("rate %d bps out of range", rule.RateBps),
		}
	}
	for name, bound := range map[string]*string{"floor": rule.Floor, "cap": rule.Cap} {
		if bound == nil {
			continue
		}
		amount, ok := math.NewIntFromString(*bound)
		if !ok || amount.IsNegative() {
			return &types.InvalidRuleError{
				RuleOrder: rule.Order,
				Message:   fmt.Sprintf("invalid %s %q", name, *bound),
			}
		}
	}
	return nil
}

// RulesFor resolves the agreement rules applying to one (partner, chain,
// validator, component) at a period start. Returns the matched version
// number and the ordered rules; an empty rule set with version 0 means no
// agreement version is effective, which yields zero commission rather than
// an error.
func (s *Service) RulesFor(
	ctx context.Context,
	partnerID, chainID, validatorKey string,
	periodStart time.Time,
	component types.RevenueComponent,
) (uint32, []model.AgreementRule, error) {
	agreement, err := s.db.GetAgreementByPartner(ctx, partnerID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	version, rules := resolveRules(agreement, chainID, validatorKey, periodStart, component)
	return version, rules, nil
}

// resolveRules is the pure core of the resolver: pick the version covering
// periodStart, filter by scope, sort by rule order. A nil chain or
// validator on a rule is a wildcard over that dimension. Multiple matching
// rules all apply and stack additively; callers wanting single-rule
// semantics must keep scopes non-overlapping.
func resolveRules(
	agreement *model.AgreementDocument,
	chainID, validatorKey string,
	periodStart time.Time,
	component types.RevenueComponent,
) (uint32, []model.AgreementRule) {
	if agreement == nil {
		return 0, nil
	}

	version := agreement.VersionAt(periodStart)
	if version == nil {
		return 0, nil
	}

	var matched []model.AgreementRule
	for _, rule := range version.Rules {
		if !rule.Active {
			continue
		}
		if rule.Component != component.String() {
			continue
		}
		if rule.ChainID != nil && *rule.ChainID != chainID {
			continue
		}
		if rule.ValidatorKey != nil && *rule.ValidatorKey != validatorKey {
			continue
		}
		matched = append(matched, rule)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Order < matched[j].Order })
	return version.Version, matched
}
