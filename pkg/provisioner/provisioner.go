// Package provisioner runs the request level operations of the reconciler: it provisions
// tenants and connects their data sources by chaining the namespace manager, the engine
// bootstrap, the catalog reconciler and the rollout trigger.
package provisioner

import (
	"context"
	"strings"
	"time"

	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	"github.com/kyma-incubator/trino-reconciler/pkg/connector"
	"github.com/kyma-incubator/trino-reconciler/pkg/engine"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/kyma-incubator/trino-reconciler/pkg/inventory"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"github.com/kyma-incubator/trino-reconciler/pkg/metrics"
	"github.com/kyma-incubator/trino-reconciler/pkg/reconciler"
	"github.com/kyma-incubator/trino-reconciler/pkg/rollout"
	"github.com/kyma-incubator/trino-reconciler/pkg/tenant"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	OpProvisionTenant      = "ProvisionTenant"
	OpDeployCatalog        = "DeployCatalog"
	OpApplyConnectorConfig = "ApplyConnectorConfig"
	OpConnectSource        = "ConnectSource"
	OpRemoveCatalog        = "RemoveCatalog"
	OpTenantStatus         = "TenantStatus"
	OpListCatalogs         = "ListCatalogs"

	defaultRolloutInterval = 5 * time.Second
	defaultRolloutTimeout  = 5 * time.Minute
)

type Config struct {
	Engine            engine.Params
	EngineIdentity    string
	SensitivePrefixes []string
	Labels            map[string]string
	// WaitForRollout blocks catalog changes until the restarted engine workloads are ready.
	WaitForRollout  bool
	RolloutInterval time.Duration
	RolloutTimeout  time.Duration
}

type Service struct {
	registry   *connector.Registry
	builder    *catalog.Builder
	namespaces *tenant.NamespaceManager
	bootstrap  *engine.Bootstrap
	reconciler *reconciler.Reconciler
	rollout    *rollout.Trigger
	inventory  inventory.Repository
	metric     *metrics.OperationMetric
	config     Config
	logger     *zap.SugaredLogger
}

func NewService(cluster *kubernetes.Cluster, installer engine.Installer, cfg Config, logger *zap.SugaredLogger) (*Service, error) {
	if cluster == nil {
		return nil, e.NewConfigurationError(nil, "cluster is undefined")
	}
	if installer == nil {
		return nil, e.NewConfigurationError(nil, "engine installer is undefined")
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if cfg.RolloutInterval <= 0 {
		cfg.RolloutInterval = defaultRolloutInterval
	}
	if cfg.RolloutTimeout <= 0 {
		cfg.RolloutTimeout = defaultRolloutTimeout
	}

	registry, err := connector.DefaultRegistry()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load connector templates")
	}
	namespaces := tenant.NewNamespaceManager(cluster, logger)
	return &Service{
		registry:   registry,
		builder:    catalog.NewBuilder(registry, cfg.SensitivePrefixes, cfg.Labels),
		namespaces: namespaces,
		bootstrap:  engine.NewBootstrap(installer, cfg.Engine, logger),
		reconciler: reconciler.NewReconciler(cluster, namespaces, logger),
		rollout:    rollout.NewTrigger(cluster, cfg.EngineIdentity, logger),
		inventory:  inventory.NoopRepository{},
		metric:     metrics.NewOperationMetric(logger),
		config:     cfg,
		logger:     logger,
	}, nil
}

// WithInventory sets the repository which records the configured catalogs of a tenant.
func (s *Service) WithInventory(repo inventory.Repository) *Service {
	if repo != nil {
		s.inventory = repo
	}
	return s
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.rollout.WithClock(clock)
	return s
}

// Metric returns the collector which tracks the executed operations.
func (s *Service) Metric() *metrics.OperationMetric {
	return s.metric
}

func (s *Service) Builder() *catalog.Builder {
	return s.builder
}

func (s *Service) observe(operation string, start time.Time, err error) {
	s.metric.Observe(operation, err, time.Since(start))
	if err != nil {
		s.logger.Warnf("Operation '%s' failed after %s: %s", operation, time.Since(start), err)
	}
}

type ProvisionResult struct {
	Namespace        string `json:"namespace"`
	NamespaceCreated bool   `json:"namespaceCreated"`
}

// ProvisionTenant ensures the namespace of the tenant exists and installs or upgrades the engine in it.
func (s *Service) ProvisionTenant(ctx context.Context, tenantID string) (result *ProvisionResult, err error) {
	defer func(start time.Time) { s.observe(OpProvisionTenant, start, err) }(time.Now())

	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	namespace := tenant.NamespaceName(tenantID)
	created, err := s.namespaces.EnsureNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if err := s.bootstrap.BootstrapEngine(ctx, namespace); err != nil {
		return nil, err
	}
	return &ProvisionResult{Namespace: namespace, NamespaceCreated: created}, nil
}

type DeployResult struct {
	Namespace string              `json:"namespace"`
	Catalog   string              `json:"catalog"`
	Outcome   *reconciler.Outcome `json:"outcome"`
}

// DeployCatalog applies a fully described catalog and its optional secret data to a namespace.
func (s *Service) DeployCatalog(ctx context.Context, cfg *catalog.Config, secretData map[string]string, namespace string) (result *DeployResult, err error) {
	defer func(start time.Time) { s.observe(OpDeployCatalog, start, err) }(time.Now())

	if strings.TrimSpace(namespace) == "" {
		return nil, e.NewValidationError("namespace is undefined")
	}
	descriptor, err := cfg.Descriptor()
	if err != nil {
		return nil, err
	}
	tenantID := tenantOf(namespace)
	if descriptor.Labels, err = ownerLabels(descriptor.Labels, tenantID); err != nil {
		return nil, err
	}
	outcome, err := s.reconciler.ApplyCatalog(ctx, namespace, descriptor, cfg.SecretPayload(secretData))
	if err != nil {
		return nil, err
	}

	if tenantID != "" {
		if err := s.record(ctx, tenantID, descriptor.Name, descriptor.ConnectorName, namespace); err != nil {
			return nil, err
		}
	}
	return &DeployResult{Namespace: namespace, Catalog: descriptor.Name, Outcome: outcome}, nil
}

type ConnectorResult struct {
	Namespace string                     `json:"namespace"`
	Config    string                     `json:"config"`
	Outcome   reconciler.ResourceOutcome `json:"outcome"`
	Restarted []string                   `json:"restarted"`
}

// ApplyConnectorConfig writes the connector configuration document of the tenant and restarts
// the engine workloads. Invalid input is rejected before the cluster is contacted.
func (s *Service) ApplyConnectorConfig(ctx context.Context, rawKind string, fields map[string]string, tenantID string) (result *ConnectorResult, err error) {
	defer func(start time.Time) { s.observe(OpApplyConnectorConfig, start, err) }(time.Now())

	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	kind, err := connector.ParseKind(rawKind)
	if err != nil {
		return nil, err
	}
	properties, tpl, err := s.builder.ConfigProperties(kind, fields)
	if err != nil {
		return nil, err
	}

	namespace := tenant.NamespaceName(tenantID)
	if err := s.requireNamespace(ctx, tenantID, namespace); err != nil {
		return nil, err
	}
	name := manifest.ConnectorConfigName(strings.ToLower(tpl.CanonicalName))
	outcome, err := s.reconciler.ApplyConnectorConfig(ctx, namespace, name, properties)
	if err != nil {
		return nil, err
	}
	restarted, err := s.restart(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return &ConnectorResult{Namespace: namespace, Config: name, Outcome: outcome, Restarted: restarted}, nil
}

type ConnectResult struct {
	Namespace string              `json:"namespace"`
	Catalog   string              `json:"catalog"`
	Outcome   *reconciler.Outcome `json:"outcome"`
	Restarted []string            `json:"restarted"`
}

// ConnectSource builds the catalog of a data source, applies it to the tenant namespace,
// restarts the engine and records the catalog in the inventory.
func (s *Service) ConnectSource(ctx context.Context, rawKind string, fields map[string]string, tenantID string) (result *ConnectResult, err error) {
	defer func(start time.Time) { s.observe(OpConnectSource, start, err) }(time.Now())

	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	kind, err := connector.ParseKind(rawKind)
	if err != nil {
		return nil, err
	}
	descriptor, secret, err := s.builder.Build(kind, fields, tenantID)
	if err != nil {
		return nil, err
	}

	namespace := tenant.NamespaceName(tenantID)
	outcome, err := s.reconciler.ApplyCatalog(ctx, namespace, descriptor, secret)
	if err != nil {
		return nil, err
	}
	restarted, err := s.restart(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, tenantID, descriptor.Name, kind.String(), namespace); err != nil {
		return nil, err
	}
	return &ConnectResult{Namespace: namespace, Catalog: descriptor.Name, Outcome: outcome, Restarted: restarted}, nil
}

// RemoveCatalog deletes a catalog of the tenant and restarts the engine.
func (s *Service) RemoveCatalog(ctx context.Context, tenantID, catalogName string) (err error) {
	defer func(start time.Time) { s.observe(OpRemoveCatalog, start, err) }(time.Now())

	if err := tenant.ValidateID(tenantID); err != nil {
		return err
	}
	if strings.TrimSpace(catalogName) == "" {
		return e.NewValidationError("catalog name is undefined")
	}
	namespace := tenant.NamespaceName(tenantID)
	if err := s.requireNamespace(ctx, tenantID, namespace); err != nil {
		return err
	}
	if err := s.reconciler.RemoveCatalog(ctx, namespace, catalogName); err != nil {
		return err
	}
	if err := s.inventory.Delete(ctx, tenantID, catalogName); err != nil {
		return errors.Wrapf(err, "failed to delete catalog '%s' of tenant '%s' from inventory", catalogName, tenantID)
	}
	_, err = s.restart(ctx, namespace)
	return err
}

// ListCatalogs returns the catalogs which exist in the namespace of the tenant.
func (s *Service) ListCatalogs(ctx context.Context, tenantID string) (result []reconciler.CatalogSummary, err error) {
	defer func(start time.Time) { s.observe(OpListCatalogs, start, err) }(time.Now())

	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	namespace := tenant.NamespaceName(tenantID)
	if err := s.requireNamespace(ctx, tenantID, namespace); err != nil {
		return nil, err
	}
	return s.reconciler.ListCatalogs(ctx, namespace)
}

// ListConnectors returns the supported connector templates.
func (s *Service) ListConnectors() []*connector.Template {
	return s.registry.Templates()
}

func (s *Service) requireNamespace(ctx context.Context, tenantID, namespace string) error {
	exists, err := s.namespaces.Exists(ctx, namespace)
	if err != nil {
		return err
	}
	if !exists {
		return e.NewNotFoundError("tenant", tenantID)
	}
	return nil
}

func (s *Service) restart(ctx context.Context, namespace string) ([]string, error) {
	restarted, err := s.rollout.RestartEngineWorkloads(ctx, namespace)
	if err != nil {
		return restarted, err
	}
	if s.config.WaitForRollout && len(restarted) > 0 {
		if err := s.rollout.WaitForRollout(ctx, namespace, restarted, s.config.RolloutInterval, s.config.RolloutTimeout); err != nil {
			return restarted, err
		}
	}
	return restarted, nil
}

func (s *Service) record(ctx context.Context, tenantID, catalogName, connectorKind, namespace string) error {
	err := s.inventory.Record(ctx, &inventory.Entry{
		TenantID:      tenantID,
		CatalogName:   catalogName,
		ConnectorKind: connectorKind,
		Namespace:     namespace,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to record catalog '%s' of tenant '%s' in inventory", catalogName, tenantID)
	}
	return nil
}

// tenantOf resolves the tenant owning a namespace from the namespace prefix. Namespaces
// outside the tenant scheme have no owner.
func tenantOf(namespace string) string {
	prefix := tenant.NamespacePrefix + "-"
	if strings.HasPrefix(namespace, prefix) {
		return strings.TrimPrefix(namespace, prefix)
	}
	return ""
}

// ownerLabels returns a copy of the labels carrying the tenant label of the namespace owner.
// A tenant label naming anyone else is rejected.
func ownerLabels(labels map[string]string, tenantID string) (map[string]string, error) {
	if label := labels[catalog.TenantLabel]; label != "" && label != tenantID {
		return nil, e.NewValidationError("label '%s=%s' does not match the owner of the target namespace",
			catalog.TenantLabel, label)
	}
	result := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		result[k] = v
	}
	if tenantID != "" {
		result[catalog.TenantLabel] = tenantID
	}
	return result, nil
}
