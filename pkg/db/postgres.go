package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	//add Postgres driver:
	_ "github.com/lib/pq"
)

type postgresConnectionFactory struct {
	host         string
	port         int
	database     string
	user         string
	password     string
	sslMode      bool
	debug        bool
	blockQueries bool
	logger       *zap.SugaredLogger

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

func (pcf *postgresConnectionFactory) Init(migrate bool) error {
	if err := pcf.checkPostgresIsolationLevel(); err != nil {
		return err
	}
	if !migrate {
		return nil
	}

	conn, err := pcf.NewConnection()
	if err != nil {
		return errors.Wrap(err, "not able to open DB connection to perform migration")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			pcf.logger.Warnf("Failed to close DB connection which was used to perform migration: %s", err)
		}
	}()
	driver, err := postgres.WithInstance(conn.DB(), &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "not able to instantiate postgres driver for migration")
	}
	return migrateDatabase(Postgres, driver, pcf.logger, pcf.debug)
}

func (pcf *postgresConnectionFactory) dataSourceName() string {
	sslMode := "disable"
	if pcf.sslMode {
		sslMode = "require"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pcf.host, pcf.port, pcf.user, pcf.password, pcf.database, sslMode)
}

func (pcf *postgresConnectionFactory) NewConnection() (Connection, error) {
	db, err := sql.Open("postgres", pcf.dataSourceName())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pcf.maxOpenConns)
	db.SetMaxIdleConns(pcf.maxIdleConns)
	db.SetConnMaxLifetime(pcf.connMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	return newSQLConnection(db, Postgres, pcf.blockQueries, pcf.logger), nil
}

func (pcf *postgresConnectionFactory) checkPostgresIsolationLevel() error {
	db, err := sql.Open("postgres", pcf.dataSourceName())
	if err != nil {
		return errors.Wrap(err, "not able to open DB connection to verify DB isolation level")
	}
	defer func() {
		if err := db.Close(); err != nil {
			pcf.logger.Warnf("Failed to close DB connection which was used to get Postgres isolation level: %s", err)
		}
	}()

	var isoLevel string
	if err := db.QueryRow("SHOW TRANSACTION ISOLATION LEVEL").Scan(&isoLevel); err != nil {
		return errors.Wrap(err, "failed to get isolation level from Postgres DB")
	}
	if isoLevel == sql.LevelReadUncommitted.String() {
		//stop bootstrapping if isolation level is too low
		return fmt.Errorf("postgres isolation level has to be >= '%s' but was '%s'",
			sql.LevelReadCommitted.String(), isoLevel)
	}
	pcf.logger.Infof("Postgres isolation level is: %v", isoLevel)
	return nil
}
