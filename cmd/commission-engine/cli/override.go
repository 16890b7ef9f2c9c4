package cli

import (
	"context"

	"github.com/introfi/commission-engine/internal/config"
	"github.com/introfi/commission-engine/internal/db"
	dbmodel "github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/tracing"
	"github.com/introfi/commission-engine/internal/services"
	"github.com/spf13/cobra"
)

func ApplyOverrideCmd() *cobra.Command {
	var (
		lineID string
		amount string
		reason string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "apply-override",
		Short: "Replaces a commission line's final amount with a manual value",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := tracing.InjectTraceID(cmd.Context())

			service, err := newOfflineService(ctx)
			if err != nil {
				return err
			}
			return service.ApplyOverride(ctx, lineID, amount, reason, actor)
		},
	}

	cmd.Flags().StringVar(&lineID, "line", "", "commission line id")
	cmd.Flags().StringVar(&amount, "amount", "", "override amount in smallest native units")
	cmd.Flags().StringVar(&reason, "reason", "", "why the override is applied")
	cmd.Flags().StringVar(&actor, "actor", "", "who applies the override")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func ClearOverrideCmd() *cobra.Command {
	var (
		lineID string
		reason string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "clear-override",
		Short: "Removes a manual override and restores the computed amount",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := tracing.InjectTraceID(cmd.Context())

			service, err := newOfflineService(ctx)
			if err != nil {
				return err
			}
			return service.ClearOverride(ctx, lineID, reason, actor)
		},
	}

	cmd.Flags().StringVar(&lineID, "line", "", "commission line id")
	cmd.Flags().StringVar(&reason, "reason", "", "why the override is cleared")
	cmd.Flags().StringVar(&actor, "actor", "", "who clears the override")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

// newOfflineService wires a service against the database only, for one-shot
// commands that never touch the queue.
func newOfflineService(ctx context.Context) (*services.Service, error) {
	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return nil, err
	}
	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return nil, err
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return nil, err
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	return services.NewService(cfg, dbClient, nil), nil
}
