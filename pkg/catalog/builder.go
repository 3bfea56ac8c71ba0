package catalog

import (
	"sort"
	"strings"

	"github.com/imdario/mergo"
	"github.com/kyma-incubator/trino-reconciler/pkg/connector"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/pkg/errors"
)

const TenantLabel = "tenant"

var (
	DefaultSensitivePrefixes = []string{
		"password",
		"secret",
		"token",
		"connection-password",
		"kinesis.access-key",
		"kinesis.secret-key",
	}
	DefaultLabels = map[string]string{
		"trino": "trino",
	}
)

// Builder turns a connector kind plus user supplied fields into a catalog Descriptor.
// It is purely computational.
type Builder struct {
	registry          *connector.Registry
	sensitivePrefixes []string
	labels            map[string]string
}

func NewBuilder(registry *connector.Registry, sensitivePrefixes []string, labels map[string]string) *Builder {
	if sensitivePrefixes == nil {
		sensitivePrefixes = DefaultSensitivePrefixes
	}
	if labels == nil {
		labels = DefaultLabels
	}
	prefixes := make([]string, 0, len(sensitivePrefixes))
	for _, prefix := range sensitivePrefixes {
		if prefix = strings.ToLower(strings.TrimSpace(prefix)); prefix != "" {
			prefixes = append(prefixes, prefix)
		}
	}
	return &Builder{
		registry:          registry,
		sensitivePrefixes: prefixes,
		labels:            labels,
	}
}

// IsSensitive reports whether a field key starts with one of the configured sensitive prefixes.
func (b *Builder) IsSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, prefix := range b.sensitivePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Build creates the descriptor of a catalog. Sensitive fields are moved into the returned
// SecretPayload and referenced from the descriptor; the payload is nil if no field is sensitive.
func (b *Builder) Build(kind connector.Kind, fields map[string]string, tenantID string) (*Descriptor, *SecretPayload, error) {
	tpl, err := b.registry.Lookup(kind)
	if err != nil {
		return nil, nil, err
	}
	if err := b.validateFields(tpl, fields); err != nil {
		return nil, nil, err
	}

	name := strings.ToLower(tpl.CanonicalName)
	descriptor := &Descriptor{
		Name:          name,
		Labels:        b.buildLabels(tenantID),
		ConnectorName: name,
		Properties:    make(map[string]PropertyRef, len(fields)),
	}

	secret := &SecretPayload{
		Name: SecretName(name),
		Data: make(map[string]string),
	}
	for key, value := range fields {
		if b.IsSensitive(key) {
			secret.Data[key] = value
			descriptor.Properties[key] = FromSecret(secret.Name, key)
			continue
		}
		descriptor.Properties[key] = Literal(value)
	}

	if len(secret.Data) == 0 {
		return descriptor, nil, nil
	}
	return descriptor, secret, nil
}

// ConfigProperties merges the property skeleton of the connector template with the
// user supplied fields (user values win). The result feeds the connector configuration document.
func (b *Builder) ConfigProperties(kind connector.Kind, fields map[string]string) (map[string]string, *connector.Template, error) {
	tpl, err := b.registry.Lookup(kind)
	if err != nil {
		return nil, nil, err
	}
	if err := b.validateFields(tpl, fields); err != nil {
		return nil, nil, err
	}

	props := tpl.Properties
	if err := mergo.Merge(&props, fields, mergo.WithOverride); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to merge fields into skeleton of connector '%s'", kind)
	}
	return props, tpl, nil
}

func (b *Builder) validateFields(tpl *connector.Template, fields map[string]string) error {
	if len(fields) == 0 {
		return e.NewValidationError("no fields provided for connector '%s'", tpl.Kind)
	}
	for key := range fields {
		if strings.TrimSpace(key) == "" {
			return e.NewValidationError("field with empty name provided for connector '%s'", tpl.Kind)
		}
	}
	var missing []string
	for _, required := range tpl.Required {
		if strings.TrimSpace(fields[required]) == "" {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return e.NewValidationError("required fields of connector '%s' are missing: %s",
			tpl.Kind, strings.Join(missing, ", "))
	}
	return nil
}

func (b *Builder) buildLabels(tenantID string) map[string]string {
	labels := make(map[string]string, len(b.labels)+1)
	for k, v := range b.labels {
		labels[k] = v
	}
	if tenantID != "" {
		labels[TenantLabel] = tenantID
	}
	return labels
}
