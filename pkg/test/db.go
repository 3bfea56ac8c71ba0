package test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kyma-incubator/trino-reconciler/pkg/db"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const envPostgresPrefix = "TRINO_RECONCILER_TEST"

// NewTestConnection returns a migrated database connection which is closed when the test ends.
// Integration tests run against the Postgres database configured by the
// TRINO_RECONCILER_TEST_POSTGRES_* env vars, all other tests use a temporary SQLite file.
func NewTestConnection(t *testing.T) db.Connection {
	connFact, err := db.NewConnectionFactory(testDBConfig(t), true, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	conn, err := connFact.NewConnection()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, conn.Close())
	})
	return conn
}

// CleanUpTables removes all rows from the given tables.
func CleanUpTables(t *testing.T, conn db.Connection, tables ...string) {
	queryPrefix := "TRUNCATE TABLE "
	if conn.Type() == db.SQLite {
		queryPrefix = "DELETE FROM "
	}
	for _, table := range tables {
		_, err := conn.DB().Exec(queryPrefix + table)
		require.NoError(t, err)
	}
}

func testDBConfig(t *testing.T) db.Config {
	if !RunIntegrationTests() {
		return db.Config{
			Driver:       string(db.SQLite),
			BlockQueries: true,
			SQLite: db.SQLiteConfig{
				File:          filepath.Join(t.TempDir(), "test.db"),
				ResetDatabase: true,
			},
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPostgresPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.database", "trino-reconciler")
	v.SetDefault("postgres.user", "trino")
	v.SetDefault("postgres.password", "trino")

	return db.Config{
		Driver:       string(db.Postgres),
		BlockQueries: true,
		Postgres: db.PostgresConfig{
			Host:            v.GetString("postgres.host"),
			Port:            v.GetInt("postgres.port"),
			Database:        v.GetString("postgres.database"),
			User:            v.GetString("postgres.user"),
			Password:        v.GetString("postgres.password"),
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Minute,
		},
	}
}
