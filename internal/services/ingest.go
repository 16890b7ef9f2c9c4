package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/introfi/commission-engine/internal/db"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// revenueFactMessage is the wire shape of one normalized revenue row as
// published by the upstream indexer. Period metadata rides along so the
// engine can register periods without a separate feed; staker detail is only
// present when the indexer has per-staker granularity.
type revenueFactMessage struct {
	ChainID      string    `json:"chain_id"`
	PeriodID     uint64    `json:"period_id"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	Finalized    bool      `json:"finalized"`
	ValidatorKey string    `json:"validator_key"`
	Component    string    `json:"component"`
	Amount       string    `json:"amount"`
	Pass         uint32    `json:"pass"`
	StakerDetail []struct {
		StakerWallet string `json:"staker_wallet"`
		Amount       string `json:"amount"`
	} `json:"staker_detail,omitempty"`
}

type stakeEventMessage struct {
	ChainID            string  `json:"chain_id"`
	PeriodID           uint64  `json:"period_id"`
	ValidatorKey       string  `json:"validator_key"`
	StakerWallet       string  `json:"staker_wallet"`
	WithdrawerWallet   string  `json:"withdrawer_wallet"`
	Amount             string  `json:"amount"`
	ActivationPeriod   uint64  `json:"activation_period"`
	DeactivationPeriod *uint64 `json:"deactivation_period,omitempty"`
}

// processRevenueFactMessage stores one revenue fact and its optional staker
// detail. Redelivered duplicates are acked as no-ops; a fact that fails
// validation is dropped with a log line rather than poisoning the queue.
func (s *Service) processRevenueFactMessage(ctx context.Context, body []byte) error {
	var msg revenueFactMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Dropping malformed revenue fact message")
		return nil
	}

	component, err := types.ParseRevenueComponent(msg.Component)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("chain_id", msg.ChainID).
			Uint64("period_id", msg.PeriodID).
			Msg("Dropping revenue fact with unknown component")
		return nil
	}
	if msg.ChainID == "" || msg.ValidatorKey == "" {
		log.Ctx(ctx).Error().Msg("Dropping revenue fact without chain or validator")
		return nil
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || amount.IsNegative() {
		log.Ctx(ctx).Error().
			Str("amount", msg.Amount).
			Msg("Dropping revenue fact with invalid amount")
		return nil
	}

	period := model.NewPeriodDocument(msg.ChainID, msg.PeriodID, msg.PeriodStart, msg.PeriodEnd, msg.Finalized)
	if err := s.db.UpsertPeriod(ctx, period); err != nil {
		return fmt.Errorf("failed to upsert period: %w", err)
	}

	fact := model.NewRevenueFactDocument(msg.ChainID, msg.PeriodID, msg.ValidatorKey, component, amount.String())
	fact.Pass = msg.Pass
	if err := s.db.SaveRevenueFact(ctx, fact); err != nil {
		if db.IsDuplicateKeyError(err) {
			log.Ctx(ctx).Debug().Str("fact_id", fact.ID).Msg("Revenue fact already stored, ignoring redelivery")
			return nil
		}
		return err
	}

	for _, detail := range msg.StakerDetail {
		detailAmount, ok := math.NewIntFromString(detail.Amount)
		if !ok || detailAmount.IsNegative() {
			log.Ctx(ctx).Warn().
				Str("staker_wallet", detail.StakerWallet).
				Str("amount", detail.Amount).
				Msg("Skipping staker detail row with invalid amount")
			continue
		}
		reward := &model.StakerRewardDocument{
			ID:           model.StakerRewardKey(msg.ChainID, msg.PeriodID, msg.ValidatorKey, detail.StakerWallet, component),
			ChainID:      msg.ChainID,
			PeriodID:     msg.PeriodID,
			ValidatorKey: msg.ValidatorKey,
			StakerWallet: detail.StakerWallet,
			Component:    component.String(),
			Amount:       detailAmount.String(),
		}
		if err := s.db.SaveStakerReward(ctx, reward); err != nil {
			if db.IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
	}

	log.Ctx(ctx).Debug().
		Str("fact_id", fact.ID).
		Int("staker_detail_rows", len(msg.StakerDetail)).
		Msg("Stored revenue fact")
	return nil
}

// processStakeEventMessage stores one per-period stake snapshot row.
func (s *Service) processStakeEventMessage(ctx context.Context, body []byte) error {
	var msg stakeEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Dropping malformed stake event message")
		return nil
	}

	if msg.ChainID == "" || msg.ValidatorKey == "" || msg.StakerWallet == "" {
		log.Ctx(ctx).Error().Msg("Dropping stake event without chain, validator or staker")
		return nil
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || amount.IsNegative() {
		log.Ctx(ctx).Error().
			Str("amount", msg.Amount).
			Msg("Dropping stake event with invalid amount")
		return nil
	}

	withdrawer := msg.WithdrawerWallet
	if withdrawer == "" {
		withdrawer = msg.StakerWallet
	}

	event := &model.StakeEventDocument{
		ID:                 model.StakeEventKey(msg.ChainID, msg.PeriodID, msg.ValidatorKey, msg.StakerWallet),
		ChainID:            msg.ChainID,
		PeriodID:           msg.PeriodID,
		ValidatorKey:       msg.ValidatorKey,
		StakerWallet:       msg.StakerWallet,
		WithdrawerWallet:   withdrawer,
		Amount:             amount.String(),
		ActivationPeriod:   msg.ActivationPeriod,
		DeactivationPeriod: msg.DeactivationPeriod,
	}
	if err := s.db.SaveStakeEvent(ctx, event); err != nil {
		if db.IsDuplicateKeyError(err) {
			log.Ctx(ctx).Debug().Str("stake_event", event.ID).Msg("Stake event already stored, ignoring redelivery")
			return nil
		}
		return err
	}

	log.Ctx(ctx).Debug().Str("stake_event", event.ID).Msg("Stored stake event")
	return nil
}
