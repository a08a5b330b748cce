package commands

import (
	"database/sql"

	"github.com/ravenfield/copx/config"
	"github.com/ravenfield/copx/db"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/logger"
)

const defaultDBFile = "copx.db"

// openDatabase opens the COPX database, running any pending migrations.
// Path priority: explicit flag > COPX_DATABASE_PATH env > config file >
// copx.db in the working directory.
func openDatabase(path string) (*sql.DB, error) {
	if path == "" {
		resolved, err := config.GetDatabasePath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve database path")
		}
		path = resolved
	}
	if path == "" {
		path = defaultDBFile
	}
	return db.OpenWithMigrations(path, logger.Logger)
}
