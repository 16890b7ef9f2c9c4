package services

import (
	"context"
	"fmt"
	"time"

	"github.com/introfi/commission-engine/internal/db"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/rs/zerolog/log"
)

// AssignWallet binds a wallet to the partner who introduced it. The db
// layer enforces exclusivity: a wallet actively bound to a different
// partner on the same chain fails with WalletConflictError, while
// re-assigning to the same partner succeeds as a no-op.
func (s *Service) AssignWallet(ctx context.Context, chainID, wallet, partnerID string, introducedAt time.Time) error {
	if chainID == "" || wallet == "" || partnerID == "" {
		return fmt.Errorf("chain id, wallet and partner id are required")
	}

	doc := model.NewPartnerWalletDocument(chainID, wallet, partnerID, introducedAt.UTC())
	if err := s.db.AssignPartnerWallet(ctx, doc); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("chain_id", chainID).
		Str("wallet", wallet).
		Str("partner_id", partnerID).
		Time("introduced_at", introducedAt).
		Msg("Assigned wallet to partner")
	return nil
}

// PartnerFor resolves the partner owning a wallet as of the given instant.
// Returns empty (not an error) when the wallet is unassigned, inactive, or
// was introduced after asOf.
func (s *Service) PartnerFor(ctx context.Context, chainID, wallet string, asOf time.Time) (string, error) {
	binding, err := s.db.GetPartnerWallet(ctx, chainID, wallet)
	if err != nil {
		if db.IsNotFoundError(err) {
			return "", nil
		}
		return "", err
	}

	if !binding.Active || asOf.Before(binding.IntroducedAt) {
		return "", nil
	}
	return binding.PartnerID, nil
}

// DeactivateWallet stops future attribution for a wallet without erasing
// its binding history.
func (s *Service) DeactivateWallet(ctx context.Context, chainID, wallet string) error {
	if err := s.db.DeactivatePartnerWallet(ctx, chainID, wallet); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("chain_id", chainID).
		Str("wallet", wallet).
		Msg("Deactivated partner wallet")
	return nil
}
