package catalog

import (
	"testing"

	"github.com/kyma-incubator/trino-reconciler/pkg/connector"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) *Builder {
	registry, err := connector.DefaultRegistry()
	require.NoError(t, err)
	return NewBuilder(registry, nil, nil)
}

func TestBuild(t *testing.T) {
	builder := newTestBuilder(t)

	t.Run("ClickHouse scenario", func(t *testing.T) {
		// given
		fields := map[string]string{
			"host":     "clickhouse.example.com",
			"username": "admin",
			"password": "s3cr3t",
		}

		// when
		descriptor, secret, err := builder.Build(connector.ClickHouse, fields, "org_123")

		// then
		require.NoError(t, err)
		require.Equal(t, "clickhouse", descriptor.Name)
		require.Equal(t, "clickhouse", descriptor.ConnectorName)
		require.Equal(t, map[string]string{"trino": "trino", TenantLabel: "org_123"}, descriptor.Labels)
		require.Equal(t, map[string]PropertyRef{
			"host":     Literal("clickhouse.example.com"),
			"username": Literal("admin"),
			"password": FromSecret("clickhouse-secret", "password"),
		}, descriptor.Properties)
		require.NoError(t, descriptor.Validate())

		require.NotNil(t, secret)
		require.Equal(t, "clickhouse-secret", secret.Name)
		require.Equal(t, map[string]string{"password": "s3cr3t"}, secret.Data)
	})

	t.Run("Sensitive prefixes are matched case-insensitive", func(t *testing.T) {
		descriptor, secret, err := builder.Build(connector.Redshift, map[string]string{
			"connection-url":      "jdbc:redshift://db:5439/sales",
			"connection-user":     "reader",
			"Connection-Password": "pw",
		}, "org_1")
		require.NoError(t, err)
		require.Equal(t, "redshift", descriptor.Name)
		require.Equal(t, FromSecret("redshift-secret", "Connection-Password"), descriptor.Properties["Connection-Password"])
		require.Equal(t, map[string]string{"Connection-Password": "pw"}, secret.Data)
	})

	t.Run("No secret payload without sensitive fields", func(t *testing.T) {
		descriptor, secret, err := builder.Build(connector.Cassandra, map[string]string{
			"cassandra.contact-points": "10.0.0.1,10.0.0.2",
		}, "org_1")
		require.NoError(t, err)
		require.Nil(t, secret)
		require.True(t, descriptor.Properties["cassandra.contact-points"].IsLiteral())
	})

	t.Run("Missing required fields", func(t *testing.T) {
		_, _, err := builder.Build(connector.Redshift, map[string]string{
			"connection-password": "pw",
		}, "org_1")
		require.Error(t, err)
		require.True(t, e.IsValidationError(err))
		require.Contains(t, err.Error(), "connection-url, connection-user")
	})

	t.Run("Blank required field counts as missing", func(t *testing.T) {
		_, _, err := builder.Build(connector.Cassandra, map[string]string{
			"cassandra.contact-points": "  ",
		}, "org_1")
		require.True(t, e.IsValidationError(err))
	})

	t.Run("Empty field map", func(t *testing.T) {
		_, _, err := builder.Build(connector.ClickHouse, nil, "org_1")
		require.True(t, e.IsValidationError(err))
	})

	t.Run("Custom sensitive prefixes and labels", func(t *testing.T) {
		registry, err := connector.DefaultRegistry()
		require.NoError(t, err)
		custom := NewBuilder(registry, []string{" API-", ""}, map[string]string{"trino": "analytics"})

		descriptor, secret, err := custom.Build(connector.ClickHouse, map[string]string{
			"api-key":  "k",
			"password": "visible",
		}, "")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"trino": "analytics"}, descriptor.Labels)
		require.Equal(t, map[string]string{"api-key": "k"}, secret.Data)
		require.True(t, descriptor.Properties["password"].IsLiteral())
	})
}

func TestConfigProperties(t *testing.T) {
	builder := newTestBuilder(t)

	t.Run("Fields override the skeleton", func(t *testing.T) {
		props, tpl, err := builder.ConfigProperties(connector.ClickHouse, map[string]string{
			"connection-url":  "jdbc:clickhouse://ch:8123/",
			"connection-user": "admin",
		})
		require.NoError(t, err)
		require.Equal(t, connector.ClickHouse, tpl.Kind)
		require.Equal(t, map[string]string{
			"connector.name":      "clickhouse",
			"connection-url":      "jdbc:clickhouse://ch:8123/",
			"connection-user":     "admin",
			"connection-password": "",
		}, props)
	})

	t.Run("Skeleton of registry stays untouched", func(t *testing.T) {
		_, _, err := builder.ConfigProperties(connector.ClickHouse, map[string]string{"connection-user": "x"})
		require.NoError(t, err)

		registry, err := connector.DefaultRegistry()
		require.NoError(t, err)
		tpl, err := registry.Lookup(connector.ClickHouse)
		require.NoError(t, err)
		require.Equal(t, "", tpl.Properties["connection-user"])
	})

	t.Run("Missing required fields", func(t *testing.T) {
		_, _, err := builder.ConfigProperties(connector.Kinesis, map[string]string{"kinesis.access-key": "a"})
		require.True(t, e.IsValidationError(err))
	})
}

func TestPropertyRef(t *testing.T) {
	require.NoError(t, Literal("").Validate())
	require.NoError(t, FromConfig("cm", "key").Validate())
	require.Error(t, PropertyRef{}.Validate())
	require.Error(t, FromSecret("", "key").Validate())

	both := Literal("x")
	both.ValueFromSecret = &KeySelector{Name: "s", Key: "k"}
	require.Error(t, both.Validate())

	require.Equal(t, "FromSecret(clickhouse-secret,password)", FromSecret("clickhouse-secret", "password").String())
}
