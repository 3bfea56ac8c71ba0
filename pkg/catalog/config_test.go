package catalog

import (
	"testing"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

const catalogConfigYAML = `
name: clickhouse
labels:
  trino: trino
spec:
  connector:
    generic:
      connectorName: clickhouse
      properties:
        connection-url:
          value: jdbc:clickhouse://ch:8123/
        connection-password:
          valueFromSecret:
            name: clickhouse-secret
            key: connection-password
`

func TestConfigDescriptor(t *testing.T) {
	t.Run("Valid config", func(t *testing.T) {
		var cfg Config
		require.NoError(t, yaml.Unmarshal([]byte(catalogConfigYAML), &cfg))

		descriptor, err := cfg.Descriptor()
		require.NoError(t, err)
		require.Equal(t, "clickhouse", descriptor.Name)
		require.Equal(t, "clickhouse", descriptor.ConnectorName)
		require.Equal(t, map[string]string{"trino": "trino"}, descriptor.Labels)
		require.Equal(t, Literal("jdbc:clickhouse://ch:8123/"), descriptor.Properties["connection-url"])
		require.Equal(t, FromSecret("clickhouse-secret", "connection-password"), descriptor.Properties["connection-password"])
	})

	t.Run("Missing connector name", func(t *testing.T) {
		cfg := &Config{Name: "clickhouse"}
		_, err := cfg.Descriptor()
		require.True(t, e.IsValidationError(err))
	})

	t.Run("Ambiguous property", func(t *testing.T) {
		value := "x"
		cfg := &Config{Name: "clickhouse", Spec: ConfigSpec{Connector: ConnectorSpec{Generic: GenericConnector{
			ConnectorName: "clickhouse",
			Properties: map[string]PropertyRef{
				"host": {Value: &value, ValueFromSecret: &KeySelector{Name: "a", Key: "b"}},
			},
		}}}}
		_, err := cfg.Descriptor()
		require.True(t, e.IsValidationError(err))
	})

	t.Run("Nil config", func(t *testing.T) {
		var cfg *Config
		_, err := cfg.Descriptor()
		require.True(t, e.IsValidationError(err))
	})
}

func TestConfigSecretPayload(t *testing.T) {
	cfg := &Config{Name: "clickhouse"}
	require.Nil(t, cfg.SecretPayload(nil))

	payload := cfg.SecretPayload(map[string]string{"password": "s3cr3t"})
	require.Equal(t, "clickhouse-secret", payload.Name)
	require.Equal(t, "s3cr3t", payload.Data["password"])
}
