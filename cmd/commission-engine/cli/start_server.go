package cli

import (
	"fmt"

	"github.com/introfi/commission-engine/internal/config"
	"github.com/introfi/commission-engine/internal/db"
	dbmodel "github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/metrics"
	"github.com/introfi/commission-engine/internal/observability/tracing"
	"github.com/introfi/commission-engine/internal/queue"
	"github.com/introfi/commission-engine/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the commission engine server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up commission db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	qm, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}
	defer qm.Shutdown()

	service := services.NewService(cfg, dbClient, qm)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	return service.StartEngine(ctx)
}
