package services

import (
	"context"
	"fmt"

	"github.com/introfi/commission-engine/internal/observability/metrics"
	"github.com/introfi/commission-engine/internal/utils/poller"
	"github.com/rs/zerolog/log"
)

// StartStatsPoller refreshes the persisted commission stats on a fixed
// interval so dashboards never aggregate the line collection on read.
func (s *Service) StartStatsPoller(ctx context.Context) {
	statsPoller := poller.NewPoller(
		s.cfg.Poller.StatsPollingInterval,
		metrics.RecordPollerDuration("stats", s.calculateAndUpdateStats),
	)
	go statsPoller.Start(ctx)
}

func (s *Service) calculateAndUpdateStats(ctx context.Context) error {
	totalCommission, totalLines, partnerStats, err := s.db.CalculateCommissionStatsAggregated(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate commission stats: %w", err)
	}

	if err := s.db.UpsertOverallStats(ctx, totalCommission, totalLines, uint64(len(partnerStats))); err != nil {
		return fmt.Errorf("failed to update overall stats: %w", err)
	}
	for _, stats := range partnerStats {
		if err := s.db.UpsertPartnerStats(ctx, stats); err != nil {
			return fmt.Errorf("failed to update stats for partner %s: %w", stats.PartnerID, err)
		}
	}

	log.Ctx(ctx).Debug().
		Str("total_commission", totalCommission).
		Uint64("total_lines", totalLines).
		Int("partners", len(partnerStats)).
		Msg("Updated commission stats")
	return nil
}
