// Package manifest renders the Kubernetes documents the reconciler submits to the cluster.
// All functions are free of side effects: identical input renders byte-identical output.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"
)

const (
	CatalogGroup    = "trino.stackable.tech"
	CatalogVersion  = "v1alpha1"
	CatalogKind     = "TrinoCatalog"
	CatalogResource = "trinocatalogs"
	CatalogCRDName  = CatalogResource + "." + CatalogGroup

	// ConnectorConfigKey is the data key of the connector configuration document.
	ConnectorConfigKey = "catalog.properties"
)

var CatalogGVR = schema.GroupVersionResource{
	Group:    CatalogGroup,
	Version:  CatalogVersion,
	Resource: CatalogResource,
}

// Namespace renders a namespace declaration.
func Namespace(name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata": map[string]interface{}{
			"name": name,
		},
	}}
}

// Secret renders an opaque secret. Data is passed as stringData and never pre-encoded.
func Secret(name string, data map[string]string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"type":       "Opaque",
		"metadata": map[string]interface{}{
			"name": name,
		},
		"stringData": stringMap(data),
	}}
}

// Catalog renders the TrinoCatalog custom resource of a descriptor.
func Catalog(descriptor *catalog.Descriptor) *unstructured.Unstructured {
	metadata := map[string]interface{}{
		"name": descriptor.Name,
	}
	if len(descriptor.Labels) > 0 {
		metadata["labels"] = stringMap(descriptor.Labels)
	}

	generic := map[string]interface{}{
		"connectorName": descriptor.ConnectorName,
	}
	if len(descriptor.Properties) > 0 {
		props := make(map[string]interface{}, len(descriptor.Properties))
		for key, ref := range descriptor.Properties {
			props[key] = propertyRef(ref)
		}
		generic["properties"] = props
	}

	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": fmt.Sprintf("%s/%s", CatalogGroup, CatalogVersion),
		"kind":       CatalogKind,
		"metadata":   metadata,
		"spec": map[string]interface{}{
			"connector": map[string]interface{}{
				"generic": generic,
			},
		},
	}}
}

// ConnectorConfigName is the name of the configuration document of a connector.
func ConnectorConfigName(connectorName string) string {
	return fmt.Sprintf("trino-%s-connector", connectorName)
}

// ConnectorConfig renders the configuration document of a connector: a ConfigMap holding
// the catalog properties in Java properties format.
func ConnectorConfig(name string, properties map[string]string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name": name,
		},
		"data": map[string]interface{}{
			ConnectorConfigKey: RenderProperties(properties),
		},
	}}
}

// RenderProperties renders key=value lines sorted by key.
func RenderProperties(properties map[string]string) string {
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", key, properties[key]))
	}
	return strings.Join(lines, "\n")
}

// Marshal renders a document as YAML.
func Marshal(doc *unstructured.Unstructured) ([]byte, error) {
	return yaml.Marshal(doc.Object)
}

func propertyRef(ref catalog.PropertyRef) map[string]interface{} {
	switch {
	case ref.Value != nil:
		return map[string]interface{}{"value": *ref.Value}
	case ref.ValueFromSecret != nil:
		return map[string]interface{}{"valueFromSecret": keySelector(ref.ValueFromSecret)}
	case ref.ValueFromConfigMap != nil:
		return map[string]interface{}{"valueFromConfigMap": keySelector(ref.ValueFromConfigMap)}
	}
	return map[string]interface{}{}
}

func keySelector(sel *catalog.KeySelector) map[string]interface{} {
	return map[string]interface{}{
		"name": sel.Name,
		"key":  sel.Key,
	}
}

func stringMap(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
