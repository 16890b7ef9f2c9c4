package services

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/introfi/commission-engine/internal/config"
	"github.com/introfi/commission-engine/internal/db"
	"github.com/introfi/commission-engine/internal/queue"
	"github.com/introfi/commission-engine/internal/utils/locker"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	cfg      *config.Config
	db       db.DbInterface
	qm       *queue.QueueManager
	jobLocks *locker.Locker
	pool     pond.Pool
}

func NewService(cfg *config.Config, db db.DbInterface, qm *queue.QueueManager) *Service {
	return &Service{
		cfg:      cfg,
		db:       db,
		qm:       qm,
		jobLocks: locker.New(),
		pool:     pond.NewPool(cfg.Engine.MaxWorkers),
	}
}

// StartEngine runs the long-lived parts of the engine: the feed consumers,
// the stats poller and the scheduled recompute sweep. Blocks until the
// context is cancelled or a consumer fails.
func (s *Service) StartEngine(ctx context.Context) error {
	s.StartStatsPoller(ctx)
	s.StartRecomputeSweep(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.qm.Consume(ctx, s.cfg.Queue.RevenueFactQueue, s.processRevenueFactMessage)
	})
	g.Go(func() error {
		return s.qm.Consume(ctx, s.cfg.Queue.StakeEventQueue, s.processStakeEventMessage)
	})

	log.Ctx(ctx).Info().Msg("Commission engine started")
	return g.Wait()
}
