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

// UsersCmd groups local user administration. These commands talk to the
// database directly and bypass the access gate; remote administration
// goes through /api/users where the manage-users capability applies.
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

var (
	userUsername  string
	userRole      string
	userClearance string
)

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := intel.ParseRole(userRole)
		if err != nil {
			return err
		}
		level, ok := classify.ParseLevel(userClearance)
		if !ok {
			return errors.Newf("unknown classification level %q", userClearance)
		}

		database, err := openDatabase(dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to open database")
		}
		defer database.Close()

		u := &intel.User{
			ID:        "user-" + uuid.NewString(),
			Username:  userUsername,
			Role:      role,
			Clearance: level,
			Active:    true,
		}
		if err := identity.NewStore(database).Create(context.Background(), u); err != nil {
			return errors.Wrap(err, "failed to create user")
		}
		fmt.Printf("Created %s (%s, %s, %s)\n", u.Username, u.ID, u.Role, u.Clearance.String())
		return nil
	},
}

var usersLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to open database")
		}
		defer database.Close()

		users, err := identity.NewStore(database).List(context.Background())
		if err != nil {
			return errors.Wrap(err, "failed to list users")
		}
		for _, u := range users {
			status := "active"
			if !u.Active {
				status = "inactive"
			}
			fmt.Printf("%-40s %-16s %-16s %-12s %s\n", u.ID, u.Username, u.Role, u.Clearance.String(), status)
		}
		return nil
	},
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Deactivate a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return errors.Wrap(err, "failed to open database")
		}
		defer database.Close()

		if err := identity.NewStore(database).Deactivate(context.Background(), args[0]); err != nil {
			return errors.Wrap(err, "failed to deactivate user")
		}
		fmt.Printf("Deactivated %s\n", args[0])
		return nil
	},
}

func init() {
	UsersCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Database path (overrides config)")
	usersAddCmd.Flags().StringVar(&userUsername, "username", "", "Username")
	usersAddCmd.Flags().StringVar(&userRole, "role", "", "Role (HQ, ANALYST_SIGINT, ANALYST_HUMINT, ANALYST_SOCMINT, OBSERVER)")
	usersAddCmd.Flags().StringVar(&userClearance, "clearance", "UNCLASSIFIED", "Clearance (UNCLASSIFIED, CONFIDENTIAL, SECRET, TOP_SECRET)")
	usersAddCmd.MarkFlagRequired("username")
	usersAddCmd.MarkFlagRequired("role")

	UsersCmd.AddCommand(usersAddCmd)
	UsersCmd.AddCommand(usersLsCmd)
	UsersCmd.AddCommand(usersDeactivateCmd)
}
