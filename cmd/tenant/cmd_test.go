package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/config"
	"github.com/kyma-incubator/trino-reconciler/pkg/engine/mocks"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes/fake"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	appsv1 "k8s.io/api/apps/v1"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

func newOptions(t *testing.T, format string, installer *mocks.Installer, objects ...runtime.Object) *cli.Options {
	cfg, err := config.Load(config.NewViper(), "")
	require.NoError(t, err)
	logger := zaptest.NewLogger(t).Sugar()
	cluster, _ := fake.NewCluster(objects...)
	service, err := provisioner.NewService(cluster, installer, cfg.Provisioner(), logger)
	require.NoError(t, err)

	o := &cli.Options{Config: cfg, OutputFormat: format}
	return o.WithLogger(logger).WithCluster(cluster).WithService(service)
}

func TestRunProvision(t *testing.T) {
	installer := mocks.NewInstaller(t)
	installer.On("Install", mock.Anything, "trino-acme", mock.Anything).Return(nil)
	o := newOptions(t, cli.FormatTable, installer)

	var out bytes.Buffer
	require.NoError(t, RunProvision(context.Background(), o, &out, "acme"))
	require.Contains(t, out.String(), "trino-acme")
	require.Contains(t, out.String(), "yes")
}

func TestRunStatus(t *testing.T) {
	t.Run("Unprovisioned tenant", func(t *testing.T) {
		o := newOptions(t, cli.FormatJSON, mocks.NewInstaller(t))

		var out bytes.Buffer
		require.NoError(t, RunStatus(context.Background(), o, &out, "acme"))

		var status provisioner.TenantStatus
		require.NoError(t, json.Unmarshal(out.Bytes(), &status))
		require.Equal(t, provisioner.StateUnprovisioned, status.State)
	})

	t.Run("Bootstrapped tenant as table", func(t *testing.T) {
		o := newOptions(t, cli.FormatTable, mocks.NewInstaller(t),
			&v1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "trino-acme"}},
			&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: "trino-acme", Name: "trino-coordinator"}})

		var out bytes.Buffer
		require.NoError(t, RunStatus(context.Background(), o, &out, "acme"))
		require.Contains(t, out.String(), string(provisioner.StateEngineBootstrapped))
		require.Contains(t, out.String(), "trino-coordinator")
	})

	t.Run("Invalid tenant", func(t *testing.T) {
		o := newOptions(t, cli.FormatTable, mocks.NewInstaller(t))
		require.Error(t, RunStatus(context.Background(), o, &bytes.Buffer{}, ""))
	})
}
