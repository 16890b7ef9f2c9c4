package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/introfi/commission-engine/internal/db"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/metrics"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// ApplyOverride replaces a commission line's final amount with a manual
// value. The computed amount is preserved so the override can be cleared
// later, and every application is recorded in the hash-chained audit log.
// Re-applying an identical override leaves the line untouched but is still
// audited.
func (s *Service) ApplyOverride(ctx context.Context, lineID, amount, reason, actor string) error {
	if reason == "" {
		return fmt.Errorf("override reason is required")
	}
	if actor == "" {
		return fmt.Errorf("override actor is required")
	}

	parsed, ok := math.NewIntFromString(amount)
	if !ok {
		return &types.InvalidAmountError{Amount: amount, Message: "not a base-10 integer"}
	}
	if parsed.IsNegative() {
		return &types.InvalidAmountError{Amount: amount, Message: "override amount must not be negative"}
	}

	line, err := s.db.GetCommissionLine(ctx, lineID)
	if err != nil {
		return err
	}

	normalized := parsed.String()
	if line.Override != nil && line.Override.Amount == normalized && line.Override.Reason == reason {
		log.Ctx(ctx).Debug().Str("line_id", lineID).Msg("Override already applied, recording audit event only")
		return s.appendOverrideEvent(ctx, line, model.OverrideActionApply, &normalized, reason, actor)
	}

	override := &model.CommissionOverride{
		Amount:    normalized,
		Reason:    reason,
		Actor:     actor,
		AppliedAt: time.Now().UTC(),
	}
	if err := s.db.SetCommissionLineOverride(ctx, lineID, override); err != nil {
		return err
	}
	if err := s.appendOverrideEvent(ctx, line, model.OverrideActionApply, &normalized, reason, actor); err != nil {
		return err
	}

	metrics.IncOverride(model.OverrideActionApply)
	log.Ctx(ctx).Info().
		Str("line_id", lineID).
		Str("amount", normalized).
		Str("actor", actor).
		Msg("Applied commission override")
	return nil
}

// ClearOverride removes a manual override and restores the computed amount.
// Clearing a line without an override is a no-op apart from the audit trail.
func (s *Service) ClearOverride(ctx context.Context, lineID, reason, actor string) error {
	if reason == "" {
		return fmt.Errorf("override reason is required")
	}
	if actor == "" {
		return fmt.Errorf("override actor is required")
	}

	line, err := s.db.GetCommissionLine(ctx, lineID)
	if err != nil {
		return err
	}
	if line.Override == nil {
		log.Ctx(ctx).Debug().Str("line_id", lineID).Msg("No override on line, recording audit event only")
		return s.appendOverrideEvent(ctx, line, model.OverrideActionClear, nil, reason, actor)
	}

	if err := s.db.ClearCommissionLineOverride(ctx, lineID); err != nil {
		return err
	}
	if err := s.appendOverrideEvent(ctx, line, model.OverrideActionClear, nil, reason, actor); err != nil {
		return err
	}

	metrics.IncOverride(model.OverrideActionClear)
	log.Ctx(ctx).Info().
		Str("line_id", lineID).
		Str("actor", actor).
		Msg("Cleared commission override")
	return nil
}

// OverrideHistory returns the full audit chain for a line, oldest first.
func (s *Service) OverrideHistory(ctx context.Context, lineID string) ([]*model.OverrideEventDocument, error) {
	return s.db.GetOverrideEvents(ctx, lineID)
}

// appendOverrideEvent links a new audit event to the previous one on the
// same line via its hash. The first event on a line chains from the empty
// hash.
func (s *Service) appendOverrideEvent(
	ctx context.Context,
	line *model.CommissionLineDocument,
	action string,
	amount *string,
	reason, actor string,
) error {
	prevHash := ""
	latest, err := s.db.GetLatestOverrideEvent(ctx, line.ID)
	if err != nil {
		if !db.IsNotFoundError(err) {
			return err
		}
	} else {
		prevHash = latest.Hash
	}

	event := &model.OverrideEventDocument{
		ID:           uuid.New().String(),
		LineID:       line.ID,
		Action:       action,
		Amount:       amount,
		BeforeAmount: line.FinalAmount,
		Reason:       reason,
		Actor:        actor,
		Timestamp:    time.Now().UTC(),
		PrevHash:     prevHash,
	}
	event.Hash = overrideEventHash(event)

	return s.db.SaveOverrideEvent(ctx, event)
}

func overrideEventHash(event *model.OverrideEventDocument) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|", event.PrevHash, event.LineID, event.Action)
	if event.Amount != nil {
		fmt.Fprintf(h, "%s", *event.Amount)
	}
	fmt.Fprintf(h, "|%s|%s|%s|%d",
		event.BeforeAmount, event.Reason, event.Actor, event.Timestamp.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyOverrideChain replays a line's audit events and checks every link.
// Returns the number of verified events.
func (s *Service) VerifyOverrideChain(ctx context.Context, lineID string) (int, error) {
	events, err := s.db.GetOverrideEvents(ctx, lineID)
	if err != nil {
		return 0, err
	}

	prevHash := ""
	for i, event := range events {
		if event.PrevHash != prevHash {
			return i, fmt.Errorf("override event %s: prev hash mismatch", event.ID)
		}
		if overrideEventHash(event) != event.Hash {
			return i, fmt.Errorf("override event %s: hash mismatch", event.ID)
		}
		prevHash = event.Hash
	}
	return len(events), nil
}
