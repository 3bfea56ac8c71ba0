package kubernetes

import (
	"context"
	"fmt"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/pkg/errors"
	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Cluster bundles the clients used to talk to the cluster control plane. It is created
// once at start-up and injected into every component.
type Cluster struct {
	Kubernetes    kubernetes.Interface
	Dynamic       dynamic.Interface
	APIExtensions apiextclientset.Interface
	RESTConfig    *rest.Config

	rawConfig *clientcmdapi.Config
}

func NewCluster(kubeconfig []byte) (*Cluster, error) {
	rawConfig, err := clientcmd.Load(kubeconfig)
	if err != nil {
		return nil, e.NewConfigurationError(err, "failed to parse kubeconfig")
	}
	restConfig, err := clientcmd.NewDefaultClientConfig(*rawConfig, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, e.NewConfigurationError(err, "failed to create Kubernetes client configuration using provided kubeconfig")
	}

	clientSet, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Kubernetes clientset by using provided REST-configuration")
	}
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create dynamic Kubernetes client by using provided REST-configuration")
	}
	apiextClient, err := apiextclientset.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create apiextensions client by using provided REST-configuration")
	}

	return &Cluster{
		Kubernetes:    clientSet,
		Dynamic:       dynamicClient,
		APIExtensions: apiextClient,
		RESTConfig:    restConfig,
		rawConfig:     rawConfig,
	}, nil
}

// Host returns the API server address or an empty string for clusters without REST configuration.
func (c *Cluster) Host() string {
	if c.RESTConfig == nil {
		return ""
	}
	return c.RESTConfig.Host
}

// RESTClientGetter returns a getter scoped to the given namespace, as required by the Helm SDK.
func (c *Cluster) RESTClientGetter(namespace string) (genericclioptions.RESTClientGetter, error) {
	if c.rawConfig == nil {
		return nil, e.NewConfigurationError(nil, "cluster was not created from a kubeconfig")
	}
	return newRESTClientGetter(c.rawConfig, c.RESTConfig, namespace), nil
}

// CRDEstablished verifies that the CustomResourceDefinition is served by the API server.
func (c *Cluster) CRDEstablished(ctx context.Context, crdName string) error {
	crd, err := c.APIExtensions.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, crdName, metav1.GetOptions{})
	if err != nil {
		return e.NewClusterError(err, fmt.Sprintf("get CRD %s", crdName))
	}
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextv1.Established && cond.Status == apiextv1.ConditionTrue {
			return nil
		}
	}
	return fmt.Errorf("CRD '%s' exists but is not established", crdName)
}
