package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/config"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/fusion"
	"github.com/ravenfield/copx/identity"
	"github.com/ravenfield/copx/logger"
	"github.com/ravenfield/copx/server"
	"github.com/ravenfield/copx/store"
	"github.com/ravenfield/copx/workflow"
)

// ServeCmd starts the COPX server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the COPX server",
	Long: `Start the COPX HTTP and WebSocket server: report submission and
review, event lifecycle, decisions, geospatial queries, fusion and user
administration, with clearance-aware change notifications over /ws.`,
	RunE: runServe,
}

var (
	servePort       int
	serveDBPath     string
	serveConfigPath string
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Database path (overrides config)")
	ServeCmd.Flags().StringVar(&serveConfigPath, "config", "", "Config file to load and watch for fusion changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error
	if serveConfigPath != "" {
		cfg, err = config.LoadFromFile(serveConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	port := config.DefaultServerPort
	if cfg.Server.Port != nil {
		port = *cfg.Server.Port
	}
	if servePort != 0 {
		port = servePort
	}

	database, err := openDatabase(serveDBPath)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	reports := store.NewReportStore(database)
	events := store.NewEventStore(database)
	decisions := store.NewDecisionStore(database)
	geoIndex := store.NewSQLGeoIndex(reports, events)
	users := identity.NewStore(database)
	gate := access.NewGate()

	var trail audit.Log = audit.Nop{}
	if cfg.Audit.Enabled {
		trail = audit.NewTrail(database, logger.Logger)
	}

	engine := workflow.NewEngine(workflow.Deps{
		Gate:      gate,
		Reports:   reports,
		Events:    events,
		Decisions: decisions,
		Geo:       geoIndex,
		Users:     users,
		Trail:     trail,
		Logger:    logger.Logger,
	})

	fusionSvc := fusion.NewService(reports, events, users, gate,
		fusionConfigFrom(cfg.Fusion), trail, logger.Logger)

	srv := server.New(server.Deps{
		Engine: engine,
		Fusion: fusionSvc,
		Users:  users,
		Gate:   gate,
		Trail:  trail,
		Config: cfg,
		Logger: logger.Logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Fusion.ScheduleSeconds > 0 {
		interval := time.Duration(cfg.Fusion.ScheduleSeconds) * time.Second
		scheduler := fusion.NewScheduler(ctx, fusionSvc, interval, logger.Logger)
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Fusion tunables follow the config file without a restart.
	if serveConfigPath != "" {
		watcher, werr := config.NewWatcher(serveConfigPath)
		if werr != nil {
			logger.Logger.Warnw("Config watcher unavailable", "error", werr)
		} else {
			watcher.OnReload(func(updated *config.Config) error {
				fusionSvc.SetConfig(fusionConfigFrom(updated.Fusion))
				logger.Logger.Infow("Fusion config reloaded",
					"radius_m", updated.Fusion.RadiusMeters,
					"window_s", updated.Fusion.WindowSeconds)
				return nil
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Logger.Infow("Shutting down", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// fusionConfigFrom maps the file representation onto fusion tunables.
func fusionConfigFrom(fc config.FusionConfig) fusion.Config {
	return fusion.Config{
		RadiusMeters:   fc.RadiusMeters,
		Window:         time.Duration(fc.WindowSeconds) * time.Second,
		Compatibility:  fusion.CompatibilityRule(fc.Compatibility),
		BonusPerSource: fc.BonusPerSource,
		MaxBonus:       fc.MaxBonus,
		EventType:      fc.EventType,
	}
}
