// Package fake provides a Cluster backed by in-memory fake clients.
package fake

import (
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	apiextfake "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/fake"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

// Clients gives tests access to the fake clients, e.g. to register reactors or inspect actions.
type Clients struct {
	Kubernetes    *k8sfake.Clientset
	Dynamic       *dynamicfake.FakeDynamicClient
	APIExtensions *apiextfake.Clientset
}

// NewCluster returns a Cluster seeded with the given objects: unstructured objects are
// stored in the dynamic client, all other objects in the typed clientset.
func NewCluster(objects ...runtime.Object) (*kubernetes.Cluster, *Clients) {
	var typed, dynamic []runtime.Object
	for _, obj := range objects {
		if _, ok := obj.(*unstructured.Unstructured); ok {
			dynamic = append(dynamic, obj)
			continue
		}
		typed = append(typed, obj)
	}

	clients := &Clients{
		Kubernetes: k8sfake.NewSimpleClientset(typed...),
		Dynamic: dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
			map[schema.GroupVersionResource]string{
				manifest.CatalogGVR: manifest.CatalogKind + "List",
			}, dynamic...),
		APIExtensions: apiextfake.NewSimpleClientset(),
	}
	return &kubernetes.Cluster{
		Kubernetes:    clients.Kubernetes,
		Dynamic:       clients.Dynamic,
		APIExtensions: clients.APIExtensions,
	}, clients
}

// ResetActions clears the recorded actions of all fake clients.
func (c *Clients) ResetActions() {
	c.Kubernetes.ClearActions()
	c.Dynamic.ClearActions()
	c.APIExtensions.ClearActions()
}

// Mutations counts create, update, patch and delete actions recorded by the fake clients.
func (c *Clients) Mutations() int {
	count := 0
	for _, action := range append(c.Kubernetes.Actions(), c.Dynamic.Actions()...) {
		switch action.GetVerb() {
		case "create", "update", "patch", "delete":
			count++
		}
	}
	return count
}

// Calls counts all actions recorded by the fake clients.
func (c *Clients) Calls() int {
	return len(c.Kubernetes.Actions()) + len(c.Dynamic.Actions()) + len(c.APIExtensions.Actions())
}
