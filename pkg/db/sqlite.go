package db

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	//add SQlite driver:
	_ "github.com/mattn/go-sqlite3"
)

type sqliteConnectionFactory struct {
	file         string
	reset        bool
	debug        bool
	blockQueries bool
	logger       *zap.SugaredLogger
}

func (scf *sqliteConnectionFactory) Init(migrate bool) error {
	//ensure directory structure of db-file exists
	if err := os.MkdirAll(filepath.Dir(scf.file), 0700); err != nil {
		return err
	}
	if scf.reset {
		if err := scf.resetFile(); err != nil {
			return err
		}
	}
	if !migrate {
		return nil
	}

	conn, err := scf.NewConnection()
	if err != nil {
		return errors.Wrap(err, "not able to open DB connection to perform migration")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			scf.logger.Warnf("Failed to close DB connection which was used to perform migration: %s", err)
		}
	}()
	driver, err := sqlite3.WithInstance(conn.DB(), &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "not able to instantiate sqlite driver for migration")
	}
	return migrateDatabase(SQLite, driver, scf.logger, scf.debug)
}

func (scf *sqliteConnectionFactory) NewConnection() (Connection, error) {
	db, err := sql.Open("sqlite3", scf.file) //establish connection
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil { //test connection
		return nil, err
	}
	return newSQLConnection(db, SQLite, scf.blockQueries, scf.logger), nil
}

func (scf *sqliteConnectionFactory) resetFile() error {
	if err := os.Remove(scf.file); err != nil && !os.IsNotExist(err) {
		//errors are ok if file was missing, but other errors are not expected
		return err
	}
	file, err := os.Create(scf.file)
	if err != nil {
		return err
	}
	return file.Close()
}
