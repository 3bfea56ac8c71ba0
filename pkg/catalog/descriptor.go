package catalog

import (
	"fmt"
	"sort"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
)

const secretNameSuffix = "-secret"

// KeySelector points to a key inside a Secret or ConfigMap.
type KeySelector struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// PropertyRef is the value of a catalog property: exactly one of Value, ValueFromSecret
// or ValueFromConfigMap is set.
type PropertyRef struct {
	Value              *string      `json:"value,omitempty"`
	ValueFromSecret    *KeySelector `json:"valueFromSecret,omitempty"`
	ValueFromConfigMap *KeySelector `json:"valueFromConfigMap,omitempty"`
}

func Literal(value string) PropertyRef {
	return PropertyRef{Value: &value}
}

func FromSecret(secretName, key string) PropertyRef {
	return PropertyRef{ValueFromSecret: &KeySelector{Name: secretName, Key: key}}
}

func FromConfig(configName, key string) PropertyRef {
	return PropertyRef{ValueFromConfigMap: &KeySelector{Name: configName, Key: key}}
}

func (p PropertyRef) IsLiteral() bool {
	return p.Value != nil
}

func (p PropertyRef) Validate() error {
	set := 0
	if p.Value != nil {
		set++
	}
	if p.ValueFromSecret != nil {
		set++
		if p.ValueFromSecret.Name == "" || p.ValueFromSecret.Key == "" {
			return e.NewValidationError("secret reference requires name and key")
		}
	}
	if p.ValueFromConfigMap != nil {
		set++
		if p.ValueFromConfigMap.Name == "" || p.ValueFromConfigMap.Key == "" {
			return e.NewValidationError("config reference requires name and key")
		}
	}
	if set != 1 {
		return e.NewValidationError("property must define exactly one of value, valueFromSecret or valueFromConfigMap (got %d)", set)
	}
	return nil
}

func (p PropertyRef) String() string {
	switch {
	case p.Value != nil:
		return fmt.Sprintf("Literal(%s)", *p.Value)
	case p.ValueFromSecret != nil:
		return fmt.Sprintf("FromSecret(%s,%s)", p.ValueFromSecret.Name, p.ValueFromSecret.Key)
	case p.ValueFromConfigMap != nil:
		return fmt.Sprintf("FromConfig(%s,%s)", p.ValueFromConfigMap.Name, p.ValueFromConfigMap.Key)
	}
	return "Undefined"
}

// Descriptor is the structured form of one Trino catalog.
type Descriptor struct {
	Name          string                 `json:"name"`
	Labels        map[string]string      `json:"labels,omitempty"`
	ConnectorName string                 `json:"connectorName"`
	Properties    map[string]PropertyRef `json:"properties,omitempty"`
}

func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return e.NewValidationError("catalog name is undefined")
	}
	if d.ConnectorName == "" {
		return e.NewValidationError("connector name of catalog '%s' is undefined", d.Name)
	}
	for _, key := range d.PropertyKeys() {
		if key == "" {
			return e.NewValidationError("catalog '%s' contains a property with an empty key", d.Name)
		}
		if err := d.Properties[key].Validate(); err != nil {
			return e.NewValidationError("property '%s' of catalog '%s' is invalid: %s", key, d.Name, err)
		}
	}
	return nil
}

// PropertyKeys returns the property keys in sorted order.
func (d *Descriptor) PropertyKeys() []string {
	keys := make([]string, 0, len(d.Properties))
	for key := range d.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SecretName is the name of the Secret holding the credentials of the catalog.
func SecretName(catalogName string) string {
	return catalogName + secretNameSuffix
}

// SecretPayload carries the credential fields of a catalog. It never contains connector metadata.
type SecretPayload struct {
	Name string
	Data map[string]string
}
