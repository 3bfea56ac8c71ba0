package provisioner

import (
	"strings"

	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	"github.com/kyma-incubator/trino-reconciler/pkg/connector"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"github.com/kyma-incubator/trino-reconciler/pkg/tenant"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// RenderManifests renders all documents a connected data source results in, without
// contacting the cluster: namespace, secret (if any credential was given), catalog and
// connector configuration document.
func RenderManifests(builder *catalog.Builder, rawKind string, fields map[string]string, tenantID string) ([]*unstructured.Unstructured, error) {
	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, err
	}
	kind, err := connector.ParseKind(rawKind)
	if err != nil {
		return nil, err
	}
	descriptor, secret, err := builder.Build(kind, fields, tenantID)
	if err != nil {
		return nil, err
	}
	properties, tpl, err := builder.ConfigProperties(kind, fields)
	if err != nil {
		return nil, err
	}

	namespace := tenant.NamespaceName(tenantID)
	docs := []*unstructured.Unstructured{manifest.Namespace(namespace)}
	if secret != nil {
		docs = append(docs, manifest.Secret(secret.Name, secret.Data))
	}
	docs = append(docs,
		manifest.Catalog(descriptor),
		manifest.ConnectorConfig(manifest.ConnectorConfigName(strings.ToLower(tpl.CanonicalName)), properties))
	for _, doc := range docs[1:] {
		doc.SetNamespace(namespace)
	}
	return docs, nil
}
