package connector

import (
	"testing"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{raw: "clickhouse", want: ClickHouse},
		{raw: "Clickhouse", want: ClickHouse},
		{raw: "ClickHouse", want: ClickHouse},
		{raw: " redshift ", want: Redshift},
		{raw: "Amazing Kinesis", want: Kinesis},
		{raw: "PostgreSQL", want: PostgreSQL},
		{raw: "MySQL", want: MySQL},
		{raw: "cassandra", want: Cassandra},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			kind, err := ParseKind(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, kind)
		})
	}

	t.Run("Unknown kind is a validation error", func(t *testing.T) {
		_, err := ParseKind("unknown-kind")
		require.Error(t, err)
		require.True(t, e.IsValidationError(err))
	})

	t.Run("Empty kind is a validation error", func(t *testing.T) {
		_, err := ParseKind("  ")
		require.True(t, e.IsValidationError(err))
	})
}

func TestRegistry(t *testing.T) {
	registry, err := DefaultRegistry()
	require.NoError(t, err)

	t.Run("Every kind has a template", func(t *testing.T) {
		templates := registry.Templates()
		require.Len(t, templates, len(Kinds))
		for i := 1; i < len(templates); i++ {
			require.Less(t, string(templates[i-1].Kind), string(templates[i].Kind))
		}
	})

	t.Run("Resolve display name", func(t *testing.T) {
		tpl, err := registry.Resolve("Clickhouse")
		require.NoError(t, err)
		require.Equal(t, ClickHouse, tpl.Kind)
		require.Equal(t, "ClickHouse", tpl.CanonicalName)
		require.Equal(t, "clickhouse", tpl.Properties["connector.name"])
	})

	t.Run("Returned templates are copies", func(t *testing.T) {
		tpl, err := registry.Lookup(Redshift)
		require.NoError(t, err)
		tpl.Properties["connection-user"] = "changed"
		tpl.Required = append(tpl.Required, "other")

		again, err := registry.Lookup(Redshift)
		require.NoError(t, err)
		require.Equal(t, "", again.Properties["connection-user"])
		require.NotContains(t, again.Required, "other")
	})

	t.Run("Unknown kind", func(t *testing.T) {
		_, err := registry.Resolve("oracle")
		require.True(t, e.IsValidationError(err))
	})
}

func TestNewRegistry(t *testing.T) {
	t.Run("Missing kind", func(t *testing.T) {
		_, err := NewRegistry([]byte(`
templates:
  - kind: clickhouse
    canonicalName: ClickHouse
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "no connector template defined")
	})

	t.Run("Duplicate kind", func(t *testing.T) {
		_, err := NewRegistry([]byte(`
templates:
  - kind: clickhouse
    canonicalName: ClickHouse
  - kind: clickhouse
    canonicalName: ClickHouse
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "more than once")
	})

	t.Run("Required field without skeleton entry", func(t *testing.T) {
		_, err := NewRegistry([]byte(`
templates:
  - kind: clickhouse
    canonicalName: ClickHouse
    required: [host]
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "required field 'host'")
	})
}
