package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/identity"
	"github.com/ravenfield/copx/intel"
)

// DbCmd groups database operations
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database operations",
}

var dbPath string

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database or apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return errors.Wrap(err, "migration failed")
		}
		defer database.Close()
		fmt.Println("Database is up to date")
		return nil
	},
}

var bootstrapUsername string

// dbBootstrapCmd creates the first HQ user so a fresh deployment has an
// account able to manage everything else.
var dbBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the initial HQ user with TOP_SECRET clearance",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to open database")
		}
		defer database.Close()

		users := identity.NewStore(database)
		existing, err := users.List(context.Background())
		if err != nil {
			return errors.Wrap(err, "failed to list users")
		}
		for _, u := range existing {
			if u.Role == intel.RoleHQ && u.Active {
				return errors.Newf("an active HQ user already exists: %s", u.Username)
			}
		}

		u := &intel.User{
			ID:        "user-" + uuid.NewString(),
			Username:  bootstrapUsername,
			Role:      intel.RoleHQ,
			Clearance: classify.TopSecret,
			Active:    true,
		}
		if err := users.Create(context.Background(), u); err != nil {
			return errors.Wrap(err, "failed to create HQ user")
		}
		fmt.Printf("Created HQ user %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Database path (overrides config)")
	dbBootstrapCmd.Flags().StringVar(&bootstrapUsername, "username", "", "Username for the HQ account")
	dbBootstrapCmd.MarkFlagRequired("username")

	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbBootstrapCmd)
}
