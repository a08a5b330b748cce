package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ravenfield/copx/config"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/fusion"
	"github.com/ravenfield/copx/identity"
	"github.com/ravenfield/copx/logger"
	"github.com/ravenfield/copx/store"
)

// FuseCmd runs one fusion pass from the command line. Reruns over the
// same reports are idempotent, so this is safe to invoke from cron.
var FuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Run one fusion pass over approved reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		database, err := openDatabase(dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to open database")
		}
		defer database.Close()

		reports := store.NewReportStore(database)
		events := store.NewEventStore(database)
		users := identity.NewStore(database)

		svc := fusion.NewService(reports, events, users, nil,
			fusionConfigFrom(cfg.Fusion), nil, logger.Logger)

		created, err := svc.RunSystem(context.Background())
		if err != nil {
			return errors.Wrap(err, "fusion pass failed")
		}
		fmt.Printf("Fusion pass complete: %d new event(s)\n", len(created))
		for _, ev := range created {
			fmt.Printf("  %s  %s (%d sources)\n", ev.ID, ev.Title, len(ev.SourceReports))
		}
		return nil
	},
}

func init() {
	FuseCmd.Flags().StringVar(&dbPath, "db-path", "", "Database path (overrides config)")
}
