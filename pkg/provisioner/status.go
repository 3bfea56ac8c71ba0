package provisioner

import (
	"context"
	"time"

	"github.com/kyma-incubator/trino-reconciler/pkg/inventory"
	"github.com/kyma-incubator/trino-reconciler/pkg/reconciler"
	"github.com/kyma-incubator/trino-reconciler/pkg/tenant"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// State is the provisioning state of a tenant. It is inferred from the cluster on every call.
type State string

const (
	StateUnprovisioned      State = "Unprovisioned"
	StateNamespaceReady     State = "NamespaceReady"
	StateEngineBootstrapped State = "EngineBootstrapped"
	StateCatalogsSynced     State = "CatalogsSynced"
)

type TenantStatus struct {
	Tenant    string                      `json:"tenant"`
	Namespace string                      `json:"namespace"`
	State     State                       `json:"state"`
	Workloads []string                    `json:"workloads,omitempty"`
	Catalogs  []reconciler.CatalogSummary `json:"catalogs,omitempty"`
}

// TenantStatus reads the namespace, the engine workloads and the catalogs of a tenant
// and derives its provisioning state.
func (s *Service) TenantStatus(ctx context.Context, tenantID string) (status *TenantStatus, err error) {
	defer func(start time.Time) { s.observe(OpTenantStatus, start, err) }(time.Now())

	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	status = &TenantStatus{
		Tenant:    tenantID,
		Namespace: tenant.NamespaceName(tenantID),
		State:     StateUnprovisioned,
	}

	exists, err := s.namespaces.Exists(ctx, status.Namespace)
	if err != nil {
		return nil, err
	}
	if !exists {
		return status, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workloads, err := s.rollout.EngineWorkloads(gctx, status.Namespace)
		if err != nil {
			return err
		}
		for _, workload := range workloads {
			status.Workloads = append(status.Workloads, workload.Name)
		}
		return nil
	})
	g.Go(func() error {
		catalogs, err := s.reconciler.ListCatalogs(gctx, status.Namespace)
		if err != nil {
			return err
		}
		status.Catalogs = catalogs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case len(status.Workloads) == 0:
		status.State = StateNamespaceReady
	case len(status.Catalogs) == 0:
		status.State = StateEngineBootstrapped
	default:
		status.State = StateCatalogsSynced
	}
	return status, nil
}

// CatalogInventory returns the catalogs recorded for the tenant.
func (s *Service) CatalogInventory(ctx context.Context, tenantID string) ([]*inventory.Entry, error) {
	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	entries, err := s.inventory.List(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inventory of tenant '%s'", tenantID)
	}
	return entries, nil
}
