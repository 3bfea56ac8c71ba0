package reconciler

import (
	"context"
	"fmt"
	"sort"

	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"github.com/kyma-incubator/trino-reconciler/pkg/tenant"
	"go.uber.org/zap"
	v1 "k8s.io/api/core/v1"
	k8serr "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// ResourceOutcome describes what happened to a single resource. It is used for logging
// and response shaping only.
type ResourceOutcome struct {
	Created  bool `json:"created"`
	Replaced bool `json:"replaced"`
}

func (o ResourceOutcome) String() string {
	switch {
	case o.Created:
		return "created"
	case o.Replaced:
		return "replaced"
	default:
		return "unchanged"
	}
}

type Outcome struct {
	Namespace ResourceOutcome `json:"namespace"`
	Catalog   ResourceOutcome `json:"catalog"`
	Secret    ResourceOutcome `json:"secret"`
	ConfigMap ResourceOutcome `json:"configMap"`
}

// CatalogSummary is the short form of a TrinoCatalog found in a namespace.
type CatalogSummary struct {
	Name          string `json:"name"`
	ConnectorName string `json:"connectorName"`
	Tenant        string `json:"tenant,omitempty"`
}

// Reconciler applies catalogs and connector configuration documents to a tenant namespace.
// It re-reads the cluster state on every call and caches nothing.
type Reconciler struct {
	cluster    *kubernetes.Cluster
	namespaces *tenant.NamespaceManager
	logger     *zap.SugaredLogger
}

func NewReconciler(cluster *kubernetes.Cluster, namespaces *tenant.NamespaceManager, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		cluster:    cluster,
		namespaces: namespaces,
		logger:     logger,
	}
}

// ApplyCatalog creates the TrinoCatalog and, if given, the secret holding its credentials.
// Both resources are created only: an existing resource is reported as ClusterError.
func (r *Reconciler) ApplyCatalog(ctx context.Context, namespace string, descriptor *catalog.Descriptor, secret *catalog.SecretPayload) (*Outcome, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	created, err := r.namespaces.EnsureNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	outcome.Namespace.Created = created

	doc := manifest.Catalog(descriptor)
	doc.SetNamespace(namespace)
	_, err = r.cluster.Dynamic.Resource(manifest.CatalogGVR).Namespace(namespace).Create(ctx, doc, metav1.CreateOptions{})
	if err != nil {
		return outcome, e.NewClusterError(err, fmt.Sprintf("create %s %s/%s", manifest.CatalogKind, namespace, descriptor.Name))
	}
	outcome.Catalog.Created = true
	r.logger.Infof("%s '%s' created in namespace '%s'", manifest.CatalogKind, descriptor.Name, namespace)

	if secret == nil || len(secret.Data) == 0 {
		return outcome, nil
	}
	if err := r.createSecret(ctx, namespace, secret); err != nil {
		return outcome, err
	}
	outcome.Secret.Created = true
	return outcome, nil
}

func (r *Reconciler) createSecret(ctx context.Context, namespace string, payload *catalog.SecretPayload) error {
	secret := &v1.Secret{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(manifest.Secret(payload.Name, payload.Data).Object, secret); err != nil {
		return err
	}
	secret.Namespace = namespace
	_, err := r.cluster.Kubernetes.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err != nil {
		return e.NewClusterError(err, fmt.Sprintf("create secret %s/%s", namespace, payload.Name))
	}
	r.logger.Infof("Secret '%s' created in namespace '%s'", payload.Name, namespace)
	return nil
}

// ApplyConnectorConfig creates the connector configuration document or replaces it if it
// exists already. A creation which races with a concurrent request is retried once as replace.
func (r *Reconciler) ApplyConnectorConfig(ctx context.Context, namespace, name string, properties map[string]string) (ResourceOutcome, error) {
	configMap := &v1.ConfigMap{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(manifest.ConnectorConfig(name, properties).Object, configMap); err != nil {
		return ResourceOutcome{}, err
	}
	configMap.Namespace = namespace
	client := r.cluster.Kubernetes.CoreV1().ConfigMaps(namespace)

	existing, err := client.Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return r.replaceConfigMap(ctx, existing, configMap)
	}
	if !k8serr.IsNotFound(err) {
		return ResourceOutcome{}, e.NewClusterError(err, fmt.Sprintf("get configmap %s/%s", namespace, name))
	}

	_, err = client.Create(ctx, configMap, metav1.CreateOptions{})
	if err == nil {
		r.logger.Infof("ConfigMap '%s' created in namespace '%s'", name, namespace)
		return ResourceOutcome{Created: true}, nil
	}
	if !k8serr.IsAlreadyExists(err) {
		return ResourceOutcome{}, e.NewClusterError(err, fmt.Sprintf("create configmap %s/%s", namespace, name))
	}

	r.logger.Debugf("ConfigMap '%s' in namespace '%s' was created concurrently: replacing it", name, namespace)
	existing, err = client.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return ResourceOutcome{}, e.NewClusterError(err, fmt.Sprintf("get configmap %s/%s", namespace, name))
	}
	return r.replaceConfigMap(ctx, existing, configMap)
}

func (r *Reconciler) replaceConfigMap(ctx context.Context, existing, configMap *v1.ConfigMap) (ResourceOutcome, error) {
	configMap.ResourceVersion = existing.ResourceVersion
	_, err := r.cluster.Kubernetes.CoreV1().ConfigMaps(configMap.Namespace).Update(ctx, configMap, metav1.UpdateOptions{})
	if err != nil {
		return ResourceOutcome{}, e.NewClusterError(err, fmt.Sprintf("replace configmap %s/%s", configMap.Namespace, configMap.Name))
	}
	r.logger.Infof("ConfigMap '%s' replaced in namespace '%s'", configMap.Name, configMap.Namespace)
	return ResourceOutcome{Replaced: true}, nil
}

// RemoveCatalog deletes the TrinoCatalog together with its secret and connector configuration document.
func (r *Reconciler) RemoveCatalog(ctx context.Context, namespace, name string) error {
	err := r.cluster.Dynamic.Resource(manifest.CatalogGVR).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if k8serr.IsNotFound(err) {
			return e.NewNotFoundError("catalog", name)
		}
		return e.NewClusterError(err, fmt.Sprintf("delete %s %s/%s", manifest.CatalogKind, namespace, name))
	}
	r.logger.Infof("%s '%s' deleted from namespace '%s'", manifest.CatalogKind, name, namespace)

	secretName := catalog.SecretName(name)
	err = r.cluster.Kubernetes.CoreV1().Secrets(namespace).Delete(ctx, secretName, metav1.DeleteOptions{})
	if err != nil && !k8serr.IsNotFound(err) {
		return e.NewClusterError(err, fmt.Sprintf("delete secret %s/%s", namespace, secretName))
	}

	configName := manifest.ConnectorConfigName(name)
	err = r.cluster.Kubernetes.CoreV1().ConfigMaps(namespace).Delete(ctx, configName, metav1.DeleteOptions{})
	if err != nil && !k8serr.IsNotFound(err) {
		return e.NewClusterError(err, fmt.Sprintf("delete configmap %s/%s", namespace, configName))
	}
	return nil
}

// ListCatalogs returns the TrinoCatalogs of a namespace sorted by name.
func (r *Reconciler) ListCatalogs(ctx context.Context, namespace string) ([]CatalogSummary, error) {
	list, err := r.cluster.Dynamic.Resource(manifest.CatalogGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, e.NewClusterError(err, fmt.Sprintf("list %s in namespace %s", manifest.CatalogKind, namespace))
	}

	result := make([]CatalogSummary, 0, len(list.Items))
	for i := range list.Items {
		result = append(result, summarize(&list.Items[i]))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func summarize(item *unstructured.Unstructured) CatalogSummary {
	connectorName, _, _ := unstructured.NestedString(item.Object, "spec", "connector", "generic", "connectorName")
	return CatalogSummary{
		Name:          item.GetName(),
		ConnectorName: connectorName,
		Tenant:        item.GetLabels()[catalog.TenantLabel],
	}
}
