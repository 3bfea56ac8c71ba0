package db

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

type migrateLogger struct {
	logger  *zap.SugaredLogger
	verbose bool
}

func (ml *migrateLogger) Printf(format string, v ...interface{}) {
	if ml.verbose {
		ml.logger.Debugf(format, v...)
	} else {
		ml.logger.Infof(format, v...)
	}
}

func (ml *migrateLogger) Verbose() bool {
	return ml.verbose
}

// migrateDatabase applies the embedded migrations of the given database type.
func migrateDatabase(dbType Type, driver database.Driver, logger *zap.SugaredLogger, debug bool) error {
	source, err := iofs.New(migrations, "migrations/"+string(dbType))
	if err != nil {
		return errors.Wrapf(err, "not able to load migrations of %s", dbType)
	}
	m, err := migrate.NewWithInstance("iofs", source, string(dbType), driver)
	if err != nil {
		return errors.Wrap(err, "not able to instantiate migrator with database instance")
	}
	m.Log = &migrateLogger{logger: logger, verbose: debug}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "not able to execute migrations")
	}
	logger.Infof("Database %s migrated", dbType)
	return nil
}
