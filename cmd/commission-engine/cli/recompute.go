package cli

import (
	"github.com/introfi/commission-engine/internal/config"
	"github.com/introfi/commission-engine/internal/db"
	dbmodel "github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/tracing"
	"github.com/introfi/commission-engine/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// RecomputeCmd runs a one-shot recompute job for a partner over a period
// range, without starting the feed consumers or the sweep scheduler.
func RecomputeCmd() *cobra.Command {
	var (
		partnerID string
		chainID   string
		from      uint64
		to        uint64
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recomputes commission lines for a partner over a period range",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := tracing.InjectTraceID(cmd.Context())
			logger := log.Ctx(ctx)

			cfg, err := config.New(GetConfigPath())
			if err != nil {
				return err
			}
			if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
				return err
			}

			var dbClient db.DbInterface
			dbClient, err = db.New(ctx, cfg.Db)
			if err != nil {
				return err
			}
			dbClient = db.NewDbWithMetrics(dbClient)

			service := services.NewService(cfg, dbClient, nil)
			job, err := service.Recompute(ctx, services.RecomputeRequest{
				PartnerID:  partnerID,
				ChainID:    chainID,
				FromPeriod: from,
				ToPeriod:   to,
				Force:      force,
			})
			if err != nil {
				return err
			}

			logger.Info().
				Str("job_id", job.ID).
				Uint64("periods_processed", job.PeriodsProcessed).
				Uint64("periods_skipped", job.PeriodsSkipped).
				Uint64("lines_written", job.LinesWritten).
				Msg("Recompute finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&partnerID, "partner", "", "partner id")
	cmd.Flags().StringVar(&chainID, "chain", "", "chain id")
	cmd.Flags().Uint64Var(&from, "from", 0, "first period of the range (inclusive)")
	cmd.Flags().Uint64Var(&to, "to", 0, "last period of the range (inclusive)")
	cmd.Flags().BoolVar(&force, "force", false, "recompute periods even when inputs are unchanged")
	_ = cmd.MarkFlagRequired("partner")
	_ = cmd.MarkFlagRequired("chain")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
