package catalog

import (
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
)

// Config is a fully described catalog as submitted by callers which render the
// catalog themselves (e.g. the catalog deploy endpoint).
type Config struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Spec   ConfigSpec        `json:"spec" yaml:"spec"`
}

type ConfigSpec struct {
	Connector ConnectorSpec `json:"connector" yaml:"connector"`
}

type ConnectorSpec struct {
	Generic GenericConnector `json:"generic" yaml:"generic"`
}

type GenericConnector struct {
	ConnectorName string                 `json:"connectorName" yaml:"connectorName"`
	Properties    map[string]PropertyRef `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Descriptor converts the config into a validated catalog descriptor.
func (c *Config) Descriptor() (*Descriptor, error) {
	if c == nil {
		return nil, e.NewValidationError("catalog configuration is undefined")
	}
	descriptor := &Descriptor{
		Name:          c.Name,
		Labels:        c.Labels,
		ConnectorName: c.Spec.Connector.Generic.ConnectorName,
		Properties:    c.Spec.Connector.Generic.Properties,
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// SecretPayload returns the payload of the catalog secret or nil if no data was given.
func (c *Config) SecretPayload(data map[string]string) *SecretPayload {
	if len(data) == 0 {
		return nil
	}
	return &SecretPayload{
		Name: SecretName(c.Name),
		Data: data,
	}
}
