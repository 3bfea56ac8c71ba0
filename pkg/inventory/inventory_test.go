package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/kyma-incubator/trino-reconciler/pkg/test"
	"github.com/stretchr/testify/require"
)

func newSQLRepository(t *testing.T) *SQLRepository {
	conn := test.NewTestConnection(t)
	t.Cleanup(func() {
		test.CleanUpTables(t, conn, "catalog_inventory")
	})
	return NewSQLRepository(conn)
}

func TestRepositories(t *testing.T) {
	repositories := map[string]func(t *testing.T) (Repository, *func() time.Time){
		"memory": func(t *testing.T) (Repository, *func() time.Time) {
			repo := NewMemoryRepository()
			return repo, &repo.clock
		},
		"sql": func(t *testing.T) (Repository, *func() time.Time) {
			repo := newSQLRepository(t)
			return repo, &repo.clock
		},
	}

	for name, newRepo := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo, clock := newRepo(t)
			first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			second := first.Add(time.Hour)

			// given
			*clock = func() time.Time { return first }
			require.NoError(t, repo.Record(ctx, &Entry{TenantID: "org_123", CatalogName: "redshift", ConnectorKind: "redshift", Namespace: "trino-org_123"}))
			require.NoError(t, repo.Record(ctx, &Entry{TenantID: "org_123", CatalogName: "clickhouse", ConnectorKind: "clickhouse", Namespace: "trino-org_123"}))
			require.NoError(t, repo.Record(ctx, &Entry{TenantID: "org_456", CatalogName: "mysql", ConnectorKind: "mysql", Namespace: "trino-org_456"}))

			// when
			*clock = func() time.Time { return second }
			require.NoError(t, repo.Record(ctx, &Entry{TenantID: "org_123", CatalogName: "clickhouse", ConnectorKind: "clickhouse", Namespace: "trino-org_123"}))
			entries, err := repo.List(ctx, "org_123")

			// then
			require.NoError(t, err)
			require.Len(t, entries, 2)
			require.Equal(t, "clickhouse", entries[0].CatalogName)
			require.True(t, first.Equal(entries[0].Created))
			require.True(t, second.Equal(entries[0].Updated))
			require.Equal(t, "redshift", entries[1].CatalogName)

			// when
			require.NoError(t, repo.Delete(ctx, "org_123", "clickhouse"))
			require.NoError(t, repo.Delete(ctx, "org_123", "does-not-exist"))
			entries, err = repo.List(ctx, "org_123")

			// then
			require.NoError(t, err)
			require.Len(t, entries, 1)

			entries, err = repo.List(ctx, "unknown")
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestNoopRepository(t *testing.T) {
	var repo Repository = NoopRepository{}
	require.NoError(t, repo.Record(context.Background(), &Entry{}))
	entries, err := repo.List(context.Background(), "org_123")
	require.NoError(t, err)
	require.Empty(t, entries)
}
