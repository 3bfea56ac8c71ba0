// Package inventory records which catalogs a tenant configured. It never stores credentials.
package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kyma-incubator/trino-reconciler/pkg/db"
	"github.com/pkg/errors"
)

type Entry struct {
	TenantID      string    `json:"tenantId"`
	CatalogName   string    `json:"catalogName"`
	ConnectorKind string    `json:"connectorKind"`
	Namespace     string    `json:"namespace"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

type Repository interface {
	Record(ctx context.Context, entry *Entry) error
	List(ctx context.Context, tenantID string) ([]*Entry, error)
	Delete(ctx context.Context, tenantID, catalogName string) error
}

// NoopRepository is used when no database is configured.
type NoopRepository struct{}

func (NoopRepository) Record(context.Context, *Entry) error {
	return nil
}

func (NoopRepository) List(context.Context, string) ([]*Entry, error) {
	return nil, nil
}

func (NoopRepository) Delete(context.Context, string, string) error {
	return nil
}

// MemoryRepository keeps the inventory in memory.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]map[string]*Entry
	clock   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]map[string]*Entry),
		clock:   time.Now,
	}
}

func (r *MemoryRepository) Record(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock().UTC()
	tenantEntries, ok := r.entries[entry.TenantID]
	if !ok {
		tenantEntries = make(map[string]*Entry)
		r.entries[entry.TenantID] = tenantEntries
	}
	stored := *entry
	stored.Created = now
	if existing, ok := tenantEntries[entry.CatalogName]; ok {
		stored.Created = existing.Created
	}
	stored.Updated = now
	tenantEntries[entry.CatalogName] = &stored
	return nil
}

func (r *MemoryRepository) List(_ context.Context, tenantID string) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*Entry, 0, len(r.entries[tenantID]))
	for _, entry := range r.entries[tenantID] {
		copied := *entry
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CatalogName < result[j].CatalogName
	})
	return result, nil
}

func (r *MemoryRepository) Delete(_ context.Context, tenantID, catalogName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries[tenantID], catalogName)
	return nil
}

// SQLRepository stores the inventory in a relational database.
type SQLRepository struct {
	conn  db.Connection
	clock func() time.Time
}

func NewSQLRepository(conn db.Connection) *SQLRepository {
	return &SQLRepository{
		conn:  conn,
		clock: time.Now,
	}
}

func (r *SQLRepository) Record(ctx context.Context, entry *Entry) error {
	now := r.clock().UTC()
	_, err := r.conn.Exec(ctx,
		"INSERT INTO catalog_inventory (tenant_id, catalog_name, connector_kind, namespace, created, updated) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"ON CONFLICT (tenant_id, catalog_name) DO UPDATE SET connector_kind=$3, namespace=$4, updated=$6",
		entry.TenantID, entry.CatalogName, entry.ConnectorKind, entry.Namespace, now, now)
	if err != nil {
		return errors.Wrapf(err, "failed to record catalog '%s' of tenant '%s'", entry.CatalogName, entry.TenantID)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, tenantID string) ([]*Entry, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT tenant_id, catalog_name, connector_kind, namespace, created, updated "+
			"FROM catalog_inventory WHERE tenant_id=$1 ORDER BY catalog_name", tenantID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list catalogs of tenant '%s'", tenantID)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(&entry.TenantID, &entry.CatalogName, &entry.ConnectorKind,
			&entry.Namespace, &entry.Created, &entry.Updated); err != nil {
			return nil, errors.Wrap(err, "failed to bind inventory entry")
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *SQLRepository) Delete(ctx context.Context, tenantID, catalogName string) error {
	_, err := r.conn.Exec(ctx,
		"DELETE FROM catalog_inventory WHERE tenant_id=$1 AND catalog_name=$2", tenantID, catalogName)
	if err != nil {
		return errors.Wrapf(err, "failed to delete catalog '%s' of tenant '%s'", catalogName, tenantID)
	}
	return nil
}
