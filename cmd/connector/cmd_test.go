package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/config"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/kyma-incubator/trino-reconciler/pkg/engine/mocks"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes/fake"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	appsv1 "k8s.io/api/apps/v1"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

func newOptions(t *testing.T, format string, objects ...runtime.Object) (*Options, *fake.Clients) {
	cfg, err := config.Load(config.NewViper(), "")
	require.NoError(t, err)
	logger := zaptest.NewLogger(t).Sugar()
	cluster, clients := fake.NewCluster(objects...)
	service, err := provisioner.NewService(cluster, mocks.NewInstaller(t), cfg.Provisioner(), logger)
	require.NoError(t, err)

	o := &cli.Options{Config: cfg, OutputFormat: format}
	o.WithLogger(logger).WithCluster(cluster).WithService(service)
	return NewOptions(o), clients
}

func tenantObjects() []runtime.Object {
	return []runtime.Object{
		&v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "trino-acme"}},
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: "trino-acme", Name: "trino-worker"}},
	}
}

func TestValidate(t *testing.T) {
	o := NewOptions(&cli.Options{})
	require.Error(t, o.Validate())
	o.Tenant = "acme"
	require.NoError(t, o.Validate())
}

func TestRunApply(t *testing.T) {
	t.Run("Apply configuration", func(t *testing.T) {
		o, _ := newOptions(t, cli.FormatTable, tenantObjects()...)
		o.Tenant = "acme"
		o.Fields = map[string]string{"connection-url": "jdbc:mysql://db:3306", "connection-user": "trino"}

		var out bytes.Buffer
		require.NoError(t, RunApply(context.Background(), o, &out, "MySQL"))
		require.Contains(t, out.String(), "trino-mysql-connector")
		require.Contains(t, out.String(), "created")
		require.Contains(t, out.String(), "trino-worker")
	})

	t.Run("Missing required field", func(t *testing.T) {
		o, clients := newOptions(t, cli.FormatTable, tenantObjects()...)
		o.Tenant = "acme"
		o.Fields = map[string]string{"connection-url": "jdbc:mysql://db:3306"}

		err := RunApply(context.Background(), o, &bytes.Buffer{}, "mysql")
		require.True(t, e.IsValidationError(err))
		require.Equal(t, 0, clients.Calls())
	})
}

func TestRunConnect(t *testing.T) {
	o, _ := newOptions(t, cli.FormatTable, tenantObjects()...)
	o.Tenant = "acme"
	o.Fields = map[string]string{"host": "ch.example.com", "username": "admin", "password": "s3cr3t"}

	var out bytes.Buffer
	require.NoError(t, RunConnect(context.Background(), o, &out, "clickhouse"))
	require.Contains(t, out.String(), "clickhouse")
	require.NotContains(t, out.String(), "s3cr3t")
}

func TestRunList(t *testing.T) {
	o := NewOptions(&cli.Options{OutputFormat: cli.FormatJSON})

	var out bytes.Buffer
	require.NoError(t, RunList(o, &out))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 6)
	kinds := make([]string, 0, len(rows))
	for _, row := range rows {
		kinds = append(kinds, row["kind"])
	}
	require.ElementsMatch(t, []string{"kinesis", "redshift", "cassandra", "clickhouse", "postgresql", "mysql"}, kinds)
}
