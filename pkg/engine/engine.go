// Package engine installs the Trino release into a tenant namespace.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-semver/semver"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"helm.sh/helm/v3/pkg/strvals"
)

const (
	DefaultReleaseName = "trino"
	DefaultChart       = "trino/trino"
	DefaultWorkers     = 2
	DefaultTimeout     = 5 * time.Minute
	workersValueKey    = "server.workers"
)

//go:generate mockery --name=Installer --output=mocks --case=underscore
type Installer interface {
	Install(ctx context.Context, namespace string, params Params) error
}

// Params describe the release installed into every tenant namespace.
type Params struct {
	ReleaseName string
	// Chart is either a chart name or a reference of the form <repository>/<chart>.
	Chart   string
	RepoURL string
	Version string
	Workers int
	// Values are additional overrides in the --set format, e.g. "coordinator.jvm.maxHeapSize=4G".
	Values  []string
	Timeout time.Duration
	Wait    bool
}

func DefaultParams() Params {
	return Params{
		ReleaseName: DefaultReleaseName,
		Chart:       DefaultChart,
		Workers:     DefaultWorkers,
		Timeout:     DefaultTimeout,
	}
}

func (p Params) Validate() error {
	if p.ReleaseName == "" {
		return e.NewConfigurationError(nil, "release name of the engine is undefined")
	}
	if p.Chart == "" {
		return e.NewConfigurationError(nil, "chart of the engine is undefined")
	}
	if p.Workers < 0 {
		return e.NewConfigurationError(nil, "worker count of the engine cannot be negative (was %d)", p.Workers)
	}
	if p.Version != "" {
		if _, err := semver.NewVersion(strings.TrimPrefix(p.Version, "v")); err != nil {
			return e.NewConfigurationError(err, "chart version '%s' is not a semantic version", p.Version)
		}
	}
	return nil
}

// ChartName returns the plain chart name without the repository prefix.
func (p Params) ChartName() string {
	if idx := strings.LastIndex(p.Chart, "/"); idx >= 0 {
		return p.Chart[idx+1:]
	}
	return p.Chart
}

// SetValues returns the worker count followed by the additional overrides in --set format.
func (p Params) SetValues() []string {
	return append([]string{fmt.Sprintf("%s=%d", workersValueKey, p.Workers)}, p.Values...)
}

// ValueMap converts the overrides into the nested value structure used by the Helm SDK.
func (p Params) ValueMap() (map[string]interface{}, error) {
	values := map[string]interface{}{}
	for _, value := range p.SetValues() {
		if err := strvals.ParseInto(value, values); err != nil {
			return nil, errors.Wrapf(err, "failed to parse value override '%s'", value)
		}
	}
	return values, nil
}

// Bootstrap installs or upgrades the engine of a tenant.
type Bootstrap struct {
	installer Installer
	params    Params
	logger    *zap.SugaredLogger
}

func NewBootstrap(installer Installer, params Params, logger *zap.SugaredLogger) *Bootstrap {
	return &Bootstrap{
		installer: installer,
		params:    params,
		logger:    logger,
	}
}

func (b *Bootstrap) Params() Params {
	return b.params
}

// BootstrapEngine runs the installer in upgrade-or-install mode. Failures are returned
// as DeploymentError and never retried.
func (b *Bootstrap) BootstrapEngine(ctx context.Context, namespace string) error {
	b.logger.Infof("Installing release '%s' (chart '%s') into namespace '%s'",
		b.params.ReleaseName, b.params.Chart, namespace)

	err := b.installer.Install(ctx, namespace, b.params)
	if err == nil {
		b.logger.Infof("Release '%s' in namespace '%s' is up to date", b.params.ReleaseName, namespace)
		return nil
	}

	b.logger.Errorf("Installation of release '%s' into namespace '%s' failed: %s",
		b.params.ReleaseName, namespace, err)
	if e.IsDeploymentError(err) {
		return err
	}
	return &e.DeploymentError{
		Release:   b.params.ReleaseName,
		Namespace: namespace,
		Cause:     err,
	}
}
