package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/config"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func newOptions(t *testing.T) *Options {
	cfg, err := config.Load(config.NewViper(), "")
	require.NoError(t, err)
	return NewOptions(&cli.Options{Config: cfg, OutputFormat: cli.FormatYAML})
}

func TestRun(t *testing.T) {
	t.Run("Render source with credentials", func(t *testing.T) {
		o := newOptions(t)
		o.Tenant = "acme"
		o.Fields = map[string]string{"host": "ch.example.com", "password": "s3cr3t"}

		var out bytes.Buffer
		require.NoError(t, Run(o, &out, "clickhouse"))

		docs := strings.Split(strings.TrimPrefix(out.String(), documentSeparator), documentSeparator)
		require.Len(t, docs, 4)

		var kinds []string
		for _, doc := range docs {
			obj := map[string]interface{}{}
			require.NoError(t, yaml.Unmarshal([]byte(doc), &obj))
			kinds = append(kinds, obj["kind"].(string))
		}
		require.Equal(t, []string{"Namespace", "Secret", "TrinoCatalog", "ConfigMap"}, kinds)
		require.NotContains(t, docs[2], "s3cr3t")
	})

	t.Run("Render source without credentials", func(t *testing.T) {
		o := newOptions(t)
		o.Tenant = "acme"
		o.Fields = map[string]string{"cassandra.contact-points": "cassandra.example.com"}

		var out bytes.Buffer
		require.NoError(t, Run(o, &out, "cassandra"))
		require.Equal(t, 3, strings.Count(out.String(), documentSeparator))
	})

	t.Run("Unknown kind", func(t *testing.T) {
		o := newOptions(t)
		o.Tenant = "acme"
		o.Fields = map[string]string{"host": "x"}
		require.True(t, e.IsValidationError(Run(o, &bytes.Buffer{}, "oracle")))
	})

	t.Run("Missing tenant", func(t *testing.T) {
		o := newOptions(t)
		o.Fields = map[string]string{"host": "x"}
		require.True(t, e.IsUnauthorizedError(Run(o, &bytes.Buffer{}, "clickhouse")))
	})
}
