package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/config"
	"github.com/kyma-incubator/trino-reconciler/pkg/engine/mocks"
	"github.com/kyma-incubator/trino-reconciler/pkg/inventory"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes/fake"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/kyma-incubator/trino-reconciler/pkg/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	appsv1 "k8s.io/api/apps/v1"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

const (
	tenantID = "org_123"
	tenantNS = "trino-org_123"
)

type testEnv struct {
	server    *httptest.Server
	clients   *fake.Clients
	installer *mocks.Installer
}

func newTestEnv(t *testing.T, objects ...runtime.Object) *testEnv {
	cfg, err := config.Load(config.NewViper(), "")
	require.NoError(t, err)
	cfg.Inventory.Enabled = true
	cfg.Inventory.DB.SQLite.File = filepath.Join(t.TempDir(), "inventory.db")

	logger := zaptest.NewLogger(t).Sugar()
	cluster, clients := fake.NewCluster(objects...)
	installer := mocks.NewInstaller(t)
	service, err := provisioner.NewService(cluster, installer, cfg.Provisioner(), logger)
	require.NoError(t, err)

	cliOptions := &cli.Options{Config: cfg, OutputFormat: cli.FormatTable}
	cliOptions.WithLogger(logger).WithCluster(cluster)
	o := NewOptions(cliOptions)
	t.Cleanup(func() {
		require.NoError(t, o.Close())
	})
	conn, err := o.Connection()
	require.NoError(t, err)
	o.WithService(service.WithInventory(inventory.NewSQLRepository(conn)))

	router, err := newRouter(o, prometheus.NewRegistry())
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, clients: clients, installer: installer}
}

func (env *testEnv) request(t *testing.T, method, path, tenant string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	if tenant != "" {
		req.Header.Set(server.HeaderTenantID, tenant)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	require.NotEmpty(t, resp.Header.Get(server.HeaderCorrelationID))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var result map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &result))
	}
	return resp.StatusCode, result
}

func clickHouseSource() map[string]interface{} {
	return map[string]interface{}{
		"connectorType": "Clickhouse",
		"config": map[string]string{
			"host":     "clickhouse.example.com",
			"username": "admin",
			"password": "s3cr3t",
		},
	}
}

func TestProvisionTenantEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.installer.On("Install", mock.Anything, tenantNS, mock.Anything).Return(nil)

	status, body := env.request(t, http.MethodPost, "/v1/tenants", tenantID, nil)

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, tenantNS, body["namespace"])
}

func TestMissingTenantIdentity(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/v1/tenants"},
		{http.MethodGet, "/v1/tenants/status"},
		{http.MethodPost, "/v1/connectors"},
		{http.MethodGet, "/v1/catalogs"},
		{http.MethodDelete, "/v1/catalogs/clickhouse"},
	} {
		status, body := env.request(t, route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, status, route.path)
		require.NotEmpty(t, body["error"])
	}
	require.Equal(t, 0, env.clients.Calls())
}

func TestUnsupportedContractVersion(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.request(t, http.MethodGet, "/v2/connectors", tenantID, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestApplyConnectorEndpoint(t *testing.T) {
	t.Run("Unknown connector kind", func(t *testing.T) {
		env := newTestEnv(t, &v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: tenantNS}})

		status, body := env.request(t, http.MethodPost, "/v1/connectors", tenantID, map[string]interface{}{
			"connectorType": "unknown-kind",
			"config":        map[string]string{"host": "x"},
		})

		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, body["error"], "unknown-kind")
		require.Equal(t, 0, env.clients.Calls())
	})

	t.Run("Malformed body", func(t *testing.T) {
		env := newTestEnv(t)
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/v1/connectors", strings.NewReader("{not json"))
		require.NoError(t, err)
		req.Header.Set(server.HeaderTenantID, tenantID)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unprovisioned tenant", func(t *testing.T) {
		env := newTestEnv(t)
		status, _ := env.request(t, http.MethodPost, "/v1/connectors", tenantID, map[string]interface{}{
			"connectorType": "clickhouse",
			"config":        map[string]string{"connection-url": "jdbc:clickhouse://ch:8123/"},
		})
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Apply configuration", func(t *testing.T) {
		env := newTestEnv(t,
			&v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: tenantNS}},
			&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: tenantNS, Name: "trino-coordinator"}})

		status, body := env.request(t, http.MethodPost, "/v1/connectors", tenantID, map[string]interface{}{
			"connectorType": "clickhouse",
			"config":        map[string]string{"connection-url": "jdbc:clickhouse://ch:8123/"},
		})

		require.Equal(t, http.StatusOK, status)
		result := body["result"].(map[string]interface{})
		require.Equal(t, "trino-clickhouse-connector", result["config"])
		require.Equal(t, []interface{}{"trino-coordinator"}, result["restarted"])
	})
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t, &v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: tenantNS}})

	// connect source
	status, body := env.request(t, http.MethodPost, "/v1/sources", tenantID, clickHouseSource())
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "clickhouse", body["result"].(map[string]interface{})["catalog"])

	// connecting it again conflicts in the cluster
	status, body = env.request(t, http.MethodPost, "/v1/sources", tenantID, clickHouseSource())
	require.Equal(t, http.StatusInternalServerError, status)
	require.NotContains(t, body["error"], "already exists")

	// deploy a fully described catalog
	status, _ = env.request(t, http.MethodPost, "/v1/catalogs", tenantID, map[string]interface{}{
		"catalogConfig": map[string]interface{}{
			"name":   "mysql",
			"labels": map[string]string{"trino": "trino"},
			"spec": map[string]interface{}{"connector": map[string]interface{}{"generic": map[string]interface{}{
				"connectorName": "mysql",
				"properties": map[string]interface{}{
					"connection-url": map[string]string{"value": "jdbc:mysql://db:3306"},
				},
			}}},
		},
	})
	require.Equal(t, http.StatusOK, status)

	// list catalogs
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/catalogs", nil)
	require.NoError(t, err)
	req.Header.Set(server.HeaderTenantID, tenantID)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var catalogs []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalogs))
	require.NoError(t, resp.Body.Close())
	require.Len(t, catalogs, 2)
	require.Equal(t, "clickhouse", catalogs[0]["name"])
	require.Equal(t, "mysql", catalogs[1]["name"])

	// inventory
	req, err = http.NewRequest(http.MethodGet, env.server.URL+"/v1/catalogs/inventory", nil)
	require.NoError(t, err)
	req.Header.Set(server.HeaderTenantID, tenantID)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var entries []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.NoError(t, resp.Body.Close())
	require.Len(t, entries, 2)

	// remove catalog
	status, _ = env.request(t, http.MethodDelete, "/v1/catalogs/clickhouse", tenantID, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.request(t, http.MethodDelete, "/v1/catalogs/clickhouse", tenantID, nil)
	require.Equal(t, http.StatusNotFound, status)

	// status
	status, body = env.request(t, http.MethodGet, "/v1/tenants/status", tenantID, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, string(provisioner.StateNamespaceReady), body["state"])
}

func TestDeployCatalogNamespaceIsolation(t *testing.T) {
	catalogConfig := map[string]interface{}{
		"name": "mysql",
		"spec": map[string]interface{}{"connector": map[string]interface{}{"generic": map[string]interface{}{
			"connectorName": "mysql",
			"properties": map[string]interface{}{
				"connection-url": map[string]string{"value": "jdbc:mysql://db:3306"},
			},
		}}},
	}

	for _, namespace := range []string{"trino-org_456", "kube-system", "trino-org_1234"} {
		t.Run(namespace, func(t *testing.T) {
			env := newTestEnv(t,
				&v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: tenantNS}},
				&v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: namespace}})
			env.clients.ResetActions()

			status, body := env.request(t, http.MethodPost, "/v1/catalogs", tenantID, map[string]interface{}{
				"catalogConfig": catalogConfig,
				"secretData":    map[string]string{"connection-password": "pw"},
				"namespace":     namespace,
			})

			require.Equal(t, http.StatusBadRequest, status)
			require.Contains(t, body["error"], "does not belong to tenant")
			require.Equal(t, 0, env.clients.Calls())
		})
	}

	t.Run("Own namespace", func(t *testing.T) {
		env := newTestEnv(t, &v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: tenantNS}})

		status, _ := env.request(t, http.MethodPost, "/v1/catalogs", tenantID, map[string]interface{}{
			"catalogConfig": catalogConfig,
			"namespace":     tenantNS,
		})

		require.Equal(t, http.StatusOK, status)
	})
}

func TestRequestBodyLimit(t *testing.T) {
	env := newTestEnv(t, &v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: tenantNS}})
	env.clients.ResetActions()

	status, body := env.request(t, http.MethodPost, "/v1/connectors", tenantID, map[string]interface{}{
		"connectorType": "clickhouse",
		"config":        map[string]string{"connection-url": strings.Repeat("a", maxRequestBodySize)},
	})

	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body["error"], "request body too large")
	require.Equal(t, 0, env.clients.Calls())
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, status)

	_, err := env.clients.APIExtensions.ApiextensionsV1().CustomResourceDefinitions().Create(context.Background(),
		&apiextv1.CustomResourceDefinition{
			ObjectMeta: metav1.ObjectMeta{Name: manifest.CatalogCRDName},
			Status: apiextv1.CustomResourceDefinitionStatus{Conditions: []apiextv1.CustomResourceDefinitionCondition{
				{Type: apiextv1.Established, Status: apiextv1.ConditionTrue},
			}},
		}, metav1.CreateOptions{})
	require.NoError(t, err)

	status, _ = env.request(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/v1/connectors", tenantID, map[string]interface{}{"connectorType": "unknown"})

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Contains(t, string(raw), `trino_reconciler_operations_total{operation="ApplyConnectorConfig",result="validation_error"} 1`)
	require.Contains(t, string(raw), `trino_reconciler_db_pool_stats{metric="open_connections",pool="inventory"}`)
}
