package kubernetes

import (
	"encoding/base64"
	"os"
	"strings"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	file "github.com/kyma-incubator/trino-reconciler/pkg/files"
	"github.com/pkg/errors"
)

const (
	EnvVarKubeconfig       = "KUBECONFIG"
	EnvVarKubeconfigBase64 = "KUBECONFIG_BASE64"
)

// ClientBuilder loads the cluster access configuration once and builds the Cluster
// which is shared by all components of the process.
type ClientBuilder struct {
	kubeconfig []byte
	err        error
}

func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{}
}

func (cb *ClientBuilder) WithFile(filePath string) *ClientBuilder {
	cb.kubeconfig, cb.err = cb.loadFile(filePath)
	return cb
}

func (cb *ClientBuilder) WithString(kubeconfig string) *ClientBuilder {
	cb.kubeconfig = []byte(kubeconfig)
	return cb
}

// WithBase64 expects the kubeconfig as base64 encoded blob.
func (cb *ClientBuilder) WithBase64(encoded string) *ClientBuilder {
	cb.kubeconfig, cb.err = cb.decode(encoded)
	return cb
}

// Build creates the Cluster. If no kubeconfig was provided, the builder falls back
// to the env-var KUBECONFIG_BASE64 and afterwards to the file referenced by KUBECONFIG.
func (cb *ClientBuilder) Build() (*Cluster, error) {
	if cb.err != nil {
		return nil, cb.err
	}
	if len(cb.kubeconfig) == 0 {
		if encoded := os.Getenv(EnvVarKubeconfigBase64); encoded != "" {
			cb.kubeconfig, cb.err = cb.decode(encoded)
		} else if kubeconfigPath := os.Getenv(EnvVarKubeconfig); kubeconfigPath != "" {
			cb.kubeconfig, cb.err = cb.loadFile(kubeconfigPath)
		} else {
			cb.err = e.NewConfigurationError(nil,
				"kubeconfig undefined: please provide it as base64 blob in env-var %s, as file or set env-var %s",
				EnvVarKubeconfigBase64, EnvVarKubeconfig)
		}
		if cb.err != nil {
			return nil, cb.err
		}
	}
	return NewCluster(cb.kubeconfig)
}

func (cb *ClientBuilder) decode(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, e.NewConfigurationError(nil, "base64 encoded kubeconfig is empty")
	}
	kubeconfig, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, e.NewConfigurationError(err, "kubeconfig is not base64 encoded")
	}
	return kubeconfig, nil
}

func (cb *ClientBuilder) loadFile(filePath string) ([]byte, error) {
	kubeconfig, err := file.Read(filePath)
	if errors.Is(err, file.ErrNotExist) {
		return nil, e.NewConfigurationError(nil, "kubeconfig file not found at path '%s'", filePath)
	}
	if err != nil {
		return nil, e.NewConfigurationError(err, "failed to read kubeconfig file '%s'", filePath)
	}
	return kubeconfig, nil
}
