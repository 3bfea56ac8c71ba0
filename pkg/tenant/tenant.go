// Package tenant maps tenants to their namespaces and keeps those namespaces present.
package tenant

import (
	"context"
	"fmt"
	"strings"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"go.uber.org/zap"
	v1 "k8s.io/api/core/v1"
	k8serr "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

const NamespacePrefix = "trino"

// NamespaceName returns the namespace of a tenant. It is a pure function of the tenant ID.
func NamespaceName(tenantID string) string {
	return fmt.Sprintf("%s-%s", NamespacePrefix, tenantID)
}

// ValidateID rejects tenant IDs which are blank.
func ValidateID(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return &e.UnauthorizedError{Message: "tenant identity is missing"}
	}
	return nil
}

type NamespaceManager struct {
	cluster *kubernetes.Cluster
	logger  *zap.SugaredLogger
}

func NewNamespaceManager(cluster *kubernetes.Cluster, logger *zap.SugaredLogger) *NamespaceManager {
	return &NamespaceManager{
		cluster: cluster,
		logger:  logger,
	}
}

// EnsureNamespace creates the namespace if it is missing. A concurrent creation which
// results in an AlreadyExists error is treated as success.
func (m *NamespaceManager) EnsureNamespace(ctx context.Context, name string) (bool, error) {
	exists, err := m.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		m.logger.Debugf("Namespace '%s' exists already", name)
		return false, nil
	}

	ns := &v1.Namespace{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(manifest.Namespace(name).Object, ns); err != nil {
		return false, err
	}
	_, err = m.cluster.Kubernetes.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if k8serr.IsAlreadyExists(err) {
			m.logger.Debugf("Namespace '%s' was created concurrently", name)
			return false, nil
		}
		return false, e.NewClusterError(err, fmt.Sprintf("create namespace %s", name))
	}

	m.logger.Infof("Namespace '%s' created", name)
	return true, nil
}

// Exists reports whether the namespace is present in the cluster.
func (m *NamespaceManager) Exists(ctx context.Context, name string) (bool, error) {
	_, err := m.cluster.Kubernetes.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return true, nil
	}
	if k8serr.IsNotFound(err) {
		return false, nil
	}
	return false, e.NewClusterError(err, fmt.Sprintf("get namespace %s", name))
}
