package services

import (
	"context"

	"github.com/introfi/commission-engine/internal/types"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartRecomputeSweep schedules the periodic catch-up pass: for every chain
// with finalized periods and every partner holding an agreement, run a
// non-forced recompute over the trailing lookback window. Unchanged periods
// skip on their digest, so a quiet sweep is cheap.
func (s *Service) StartRecomputeSweep(ctx context.Context) {
	if s.cfg.Engine.SweepSchedule == "" {
		log.Ctx(ctx).Info().Msg("Recompute sweep disabled")
		return
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(s.cfg.Engine.SweepSchedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		// The schedule expression is validated at config load, so this is
		// unreachable outside of a programming error.
		log.Ctx(ctx).Fatal().Err(err).Msg("Failed to schedule recompute sweep")
	}
	scheduler.Start()

	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()

	log.Ctx(ctx).Info().
		Str("schedule", s.cfg.Engine.SweepSchedule).
		Uint64("lookback_periods", s.cfg.Engine.SweepLookbackPeriods).
		Msg("Recompute sweep scheduled")
}

func (s *Service) runSweep(ctx context.Context) {
	logger := log.Ctx(ctx)

	chains, err := s.db.GetChainIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Sweep failed to list chains")
		return
	}
	partners, err := s.db.GetPartnersWithAgreements(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Sweep failed to list partners")
		return
	}

	for _, chainID := range chains {
		latest, err := s.db.GetLatestFinalizedPeriod(ctx, chainID)
		if err != nil {
			logger.Warn().Err(err).Str("chain_id", chainID).Msg("Sweep skipping chain without finalized periods")
			continue
		}

		from := uint64(0)
		if latest.PeriodID+1 > s.cfg.Engine.SweepLookbackPeriods {
			from = latest.PeriodID + 1 - s.cfg.Engine.SweepLookbackPeriods
		}

		for _, partnerID := range partners {
			if ctx.Err() != nil {
				return
			}
			_, err := s.Recompute(ctx, RecomputeRequest{
				PartnerID:  partnerID,
				ChainID:    chainID,
				FromPeriod: from,
				ToPeriod:   latest.PeriodID,
				Force:      false,
			})
			if err != nil {
				// A partner whose window reaches back before its first
				// known period fails range validation; that is expected for
				// young chains and only logged.
				if types.IsInvalidPeriodRangeError(err) {
					logger.Debug().Err(err).
						Str("chain_id", chainID).
						Str("partner_id", partnerID).
						Msg("Sweep window not fully covered, skipping partner")
					continue
				}
				logger.Error().Err(err).
					Str("chain_id", chainID).
					Str("partner_id", partnerID).
					Msg("Sweep recompute failed")
			}
		}
	}
}
