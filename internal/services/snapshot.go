package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/introfi/commission-engine/internal/db/model"
)

// PeriodSnapshot is the complete read-only input set for attributing one
// (chain, period). Loaded once per period so every validator unit computes
// from the same data regardless of scheduling order.
type PeriodSnapshot struct {
	Period        *model.PeriodDocument
	Facts         []*model.RevenueFactDocument
	StakeEvents   []*model.StakeEventDocument
	StakerRewards []*model.StakerRewardDocument
	// Wallets maps a wallet address to its partner binding, for every wallet
	// referenced by the stake events and reward detail of this period.
	Wallets map[string]*model.PartnerWalletDocument
}

func (s *Service) loadPeriodSnapshot(ctx context.Context, chainID string, periodID uint64) (*PeriodSnapshot, error) {
	period, err := s.db.GetPeriod(ctx, chainID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load period %d: %w", periodID, err)
	}

	facts, err := s.db.GetRevenueFacts(ctx, chainID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue facts for period %d: %w", periodID, err)
	}

	events, err := s.db.GetStakeEvents(ctx, chainID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stake events for period %d: %w", periodID, err)
	}

	var rewards []*model.StakerRewardDocument
	for _, validatorKey := range validatorKeys(facts) {
		validatorRewards, err := s.db.GetStakerRewards(ctx, chainID, periodID, validatorKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load staker rewards for period %d: %w", periodID, err)
		}
		rewards = append(rewards, validatorRewards...)
	}

	walletSet := make(map[string]struct{})
	for _, event := range events {
		walletSet[event.WithdrawerWallet] = struct{}{}
	}
	for _, reward := range rewards {
		walletSet[reward.StakerWallet] = struct{}{}
	}
	wallets := make([]string, 0, len(walletSet))
	for wallet := range walletSet {
		wallets = append(wallets, wallet)
	}

	bindings, err := s.db.GetPartnerWallets(ctx, chainID, wallets)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner wallets for period %d: %w", periodID, err)
	}
	walletMap := make(map[string]*model.PartnerWalletDocument, len(bindings))
	for _, binding := range bindings {
		walletMap[binding.Wallet] = binding
	}

	snap := &PeriodSnapshot{
		Period:        period,
		Facts:         facts,
		StakeEvents:   events,
		StakerRewards: rewards,
		Wallets:       walletMap,
	}
	snap.sortInputs()
	return snap, nil
}

// sortInputs imposes a canonical order so two loads of the same data hash
// and compute identically.
func (snap *PeriodSnapshot) sortInputs() {
	sort.Slice(snap.Facts, func(i, j int) bool { return snap.Facts[i].ID < snap.Facts[j].ID })
	sort.Slice(snap.StakeEvents, func(i, j int) bool { return snap.StakeEvents[i].ID < snap.StakeEvents[j].ID })
	sort.Slice(snap.StakerRewards, func(i, j int) bool { return snap.StakerRewards[i].ID < snap.StakerRewards[j].ID })
}

// ContentHash digests the revenue facts, stake events and staker reward
// detail of the period. The non-forced recompute path compares it against
// the stored digest to skip periods whose inputs have not changed.
func (snap *PeriodSnapshot) ContentHash() string {
	h := sha256.New()
	for _, fact := range snap.Facts {
		fmt.Fprintf(h, "fact|%s|%s|%d\n", fact.ID, fact.Amount, fact.Pass)
	}
	for _, event := range snap.StakeEvents {
		deactivation := "-"
		if event.DeactivationPeriod != nil {
			deactivation = fmt.Sprintf("%d", *event.DeactivationPeriod)
		}
		fmt.Fprintf(h, "stake|%s|%s|%s|%d|%s\n",
			event.ID, event.WithdrawerWallet, event.Amount, event.ActivationPeriod, deactivation)
	}
	for _, reward := range snap.StakerRewards {
		fmt.Fprintf(h, "reward|%s|%s\n", reward.ID, reward.Amount)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ValidatorKeys returns the distinct validators with revenue in this
// period, sorted. Each is one unit of parallel work.
func (snap *PeriodSnapshot) ValidatorKeys() []string {
	return validatorKeys(snap.Facts)
}

func validatorKeys(facts []*model.RevenueFactDocument) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, fact := range facts {
		if _, ok := seen[fact.ValidatorKey]; ok {
			continue
		}
		seen[fact.ValidatorKey] = struct{}{}
		keys = append(keys, fact.ValidatorKey)
	}
	sort.Strings(keys)
	return keys
}

// partnerForWallet resolves a wallet to its owning partner as of the given
// instant. Returns empty when the wallet is unbound, inactive, or was
// introduced after the instant (retroactive stake is never credited).
func (snap *PeriodSnapshot) partnerForWallet(wallet string, asOf time.Time) string {
	binding, ok := snap.Wallets[wallet]
	if !ok || !binding.Active {
		return ""
	}
	if asOf.Before(binding.IntroducedAt) {
		return ""
	}
	return binding.PartnerID
}
