package services

import (
	"context"
	"time"

	"cosmossdk.io/math"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// ActiveStake sums the stake amounts of every stake event that is reward
// eligible in the period, optionally restricted to one validator. A wallet
// with no stake event rows simply contributes zero. Validator restriction
// uses an empty string as "all validators".
func (s *Service) ActiveStake(ctx context.Context, chainID string, periodID uint64, validatorKey string) (math.Int, error) {
	var events []*model.StakeEventDocument
	var err error
	if validatorKey == "" {
		events, err = s.db.GetStakeEvents(ctx, chainID, periodID)
	} else {
		events, err = s.db.GetStakeEventsByValidator(ctx, chainID, periodID, validatorKey)
	}
	if err != nil {
		return math.ZeroInt(), err
	}

	return sumEligibleStake(ctx, events, periodID), nil
}

// IsWalletActive reports whether the wallet has reward-eligible stake on
// the validator in the period.
func (s *Service) IsWalletActive(ctx context.Context, chainID string, periodID uint64, validatorKey, wallet string) (bool, error) {
	events, err := s.db.GetStakeEventsByValidator(ctx, chainID, periodID, validatorKey)
	if err != nil {
		return false, err
	}

	for _, event := range events {
		if event.WithdrawerWallet != wallet && event.StakerWallet != wallet {
			continue
		}
		if types.StakeStateAt(event.ActivationPeriod, event.DeactivationPeriod, periodID).EarnsRewards() {
			return true, nil
		}
	}
	return false, nil
}

func sumEligibleStake(ctx context.Context, events []*model.StakeEventDocument, periodID uint64) math.Int {
	total := math.ZeroInt()
	for _, event := range events {
		state := types.StakeStateAt(event.ActivationPeriod, event.DeactivationPeriod, periodID)
		if !state.EarnsRewards() {
			continue
		}
		amount, ok := math.NewIntFromString(event.Amount)
		if !ok {
			log.Ctx(ctx).Warn().
				Str("stake_event", event.ID).
				Str("amount", event.Amount).
				Msg("Skipping stake event with unparseable amount")
			continue
		}
		total = total.Add(amount)
	}
	return total
}

// eligibleStakeByValidator aggregates the snapshot's reward-eligible stake
// per validator: the total across all wallets and the partner-owned slice.
// Partner ownership resolves through the withdrawer wallet as of the period
// start, so stake introduced after the period never counts.
func eligibleStakeByValidator(
	ctx context.Context,
	snap *PeriodSnapshot,
	partnerID string,
	asOf time.Time,
) (total map[string]math.Int, partner map[string]math.Int, partnerWallets map[string]struct{}) {
	total = make(map[string]math.Int)
	partner = make(map[string]math.Int)
	partnerWallets = make(map[string]struct{})

	periodID := snap.Period.PeriodID
	for _, event := range snap.StakeEvents {
		state := types.StakeStateAt(event.ActivationPeriod, event.DeactivationPeriod, periodID)
		if !state.EarnsRewards() {
			continue
		}
		amount, ok := math.NewIntFromString(event.Amount)
		if !ok {
			log.Ctx(ctx).Warn().
				Str("stake_event", event.ID).
				Str("amount", event.Amount).
				Msg("Skipping stake event with unparseable amount")
			continue
		}

		current, ok := total[event.ValidatorKey]
		if !ok {
			current = math.ZeroInt()
		}
		total[event.ValidatorKey] = current.Add(amount)

		if snap.partnerForWallet(event.WithdrawerWallet, asOf) == partnerID {
			current, ok := partner[event.ValidatorKey]
			if !ok {
				current = math.ZeroInt()
			}
			partner[event.ValidatorKey] = current.Add(amount)
			partnerWallets[event.WithdrawerWallet] = struct{}{}
		}
	}
	return total, partner, partnerWallets
}
