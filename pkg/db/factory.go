package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Driver       string         `mapstructure:"driver"`
	BlockQueries bool           `mapstructure:"blockQueries"`
	LogQueries   bool           `mapstructure:"logQueries"`
	SQLite       SQLiteConfig   `mapstructure:"sqlite"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	File          string `mapstructure:"file"`
	ResetDatabase bool   `mapstructure:"resetDatabase"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         bool          `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// Enabled reports whether a database is configured.
func (c Config) Enabled() bool {
	return c.Driver != ""
}

func NewConnectionFactory(cfg Config, migrate bool, logger *zap.SugaredLogger) (ConnectionFactory, error) {
	var connFact ConnectionFactory
	switch Type(cfg.Driver) {
	case Postgres:
		connFact = &postgresConnectionFactory{
			host:            cfg.Postgres.Host,
			port:            cfg.Postgres.Port,
			database:        cfg.Postgres.Database,
			user:            cfg.Postgres.User,
			password:        cfg.Postgres.Password,
			sslMode:         cfg.Postgres.SSLMode,
			debug:           cfg.LogQueries,
			blockQueries:    cfg.BlockQueries,
			logger:          logger,
			maxOpenConns:    cfg.Postgres.MaxOpenConns,
			maxIdleConns:    cfg.Postgres.MaxIdleConns,
			connMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
	case SQLite:
		if cfg.SQLite.File == "" {
			return nil, fmt.Errorf("sqlite database file is undefined")
		}
		connFact = &sqliteConnectionFactory{
			file:         cfg.SQLite.File,
			reset:        cfg.SQLite.ResetDatabase,
			debug:        cfg.LogQueries,
			blockQueries: cfg.BlockQueries,
			logger:       logger,
		}
	default:
		return nil, fmt.Errorf("DB type '%s' not supported", cfg.Driver)
	}
	return connFact, connFact.Init(migrate)
}
