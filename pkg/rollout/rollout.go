// Package rollout restarts the engine workloads of a tenant so that they pick up changed catalogs.
package rollout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	v1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	kctlutil "k8s.io/kubectl/pkg/util/deployment"
)

const (
	RestartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"
	DefaultIdentity       = "trino"
)

type Trigger struct {
	cluster  *kubernetes.Cluster
	identity string
	clock    func() time.Time
	logger   *zap.SugaredLogger
}

func NewTrigger(cluster *kubernetes.Cluster, identity string, logger *zap.SugaredLogger) *Trigger {
	if identity == "" {
		identity = DefaultIdentity
	}
	return &Trigger{
		cluster:  cluster,
		identity: identity,
		clock:    time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock which provides the restart timestamp.
func (t *Trigger) WithClock(clock func() time.Time) *Trigger {
	t.clock = clock
	return t
}

// Matches reports whether a workload belongs to the engine.
func (t *Trigger) Matches(name string) bool {
	return strings.Contains(name, t.identity)
}

// EngineWorkloads returns the deployments of the namespace which belong to the engine.
func (t *Trigger) EngineWorkloads(ctx context.Context, namespace string) ([]v1.Deployment, error) {
	list, err := t.cluster.Kubernetes.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, e.NewClusterError(err, fmt.Sprintf("list deployments in namespace %s", namespace))
	}
	var result []v1.Deployment
	for _, deployment := range list.Items {
		if t.Matches(deployment.Name) {
			result = append(result, deployment)
		}
	}
	return result, nil
}

// RestartEngineWorkloads sets the restart annotation on the pod template of every engine
// deployment. Deployments not belonging to the engine are never touched. A namespace
// without engine deployments results in zero patches.
func (t *Trigger) RestartEngineWorkloads(ctx context.Context, namespace string) ([]string, error) {
	deployments, err := t.EngineWorkloads(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		t.logger.Debugf("No deployments matching '%s' found in namespace '%s': nothing to restart", t.identity, namespace)
		return nil, nil
	}

	data, err := restartPatch(t.clock())
	if err != nil {
		return nil, err
	}

	patched := make([]string, 0, len(deployments))
	for _, deployment := range deployments {
		_, err := t.cluster.Kubernetes.AppsV1().Deployments(namespace).Patch(ctx, deployment.Name,
			types.StrategicMergePatchType, data, metav1.PatchOptions{})
		if err != nil {
			return patched, e.NewClusterError(err, fmt.Sprintf("patch deployment %s/%s", namespace, deployment.Name))
		}
		t.logger.Infof("Restart of deployment '%s' in namespace '%s' triggered", deployment.Name, namespace)
		patched = append(patched, deployment.Name)
	}
	return patched, nil
}

func restartPatch(restartedAt time.Time) ([]byte, error) {
	patch := map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]string{
						RestartedAtAnnotation: restartedAt.Format(time.RFC3339),
					},
				},
			},
		},
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal restart patch")
	}
	return data, nil
}

// WaitForRollout blocks until all given deployments are ready or the timeout is reached.
func (t *Trigger) WaitForRollout(ctx context.Context, namespace string, deployments []string, interval, timeout time.Duration) error {
	for _, name := range deployments {
		t.logger.Debugf("Waiting for deployment '%s' in namespace '%s' to be ready", name, namespace)
		err := wait.PollImmediateWithContext(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
			deployment, err := t.cluster.Kubernetes.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return false, err
			}
			return t.IsDeploymentReady(deployment), nil
		})
		if err != nil {
			return e.NewClusterError(err, fmt.Sprintf("wait for rollout of deployment %s/%s", namespace, name))
		}
	}
	return nil
}

// IsDeploymentReady reports whether the newest replica set of the deployment has all replicas ready.
func (t *Trigger) IsDeploymentReady(deployment *v1.Deployment) bool {
	if deployment.DeletionTimestamp != nil {
		return false
	}
	_, _, newReplicaSet, err := kctlutil.GetAllReplicaSets(deployment, t.cluster.Kubernetes.AppsV1())
	if err != nil || newReplicaSet == nil {
		return false
	}
	replicas := int32(1)
	if deployment.Spec.Replicas != nil {
		replicas = *deployment.Spec.Replicas
	}
	return newReplicaSet.Status.ReadyReplicas >= replicas
}
