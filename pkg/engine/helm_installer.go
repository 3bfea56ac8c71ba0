package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
)

const (
	HelmDriver     = "secret"
	HelmMaxHistory = 3
)

// ActionConfigFactory returns the Helm action configuration of a namespace.
type ActionConfigFactory func(namespace string) (*action.Configuration, error)

//go:generate mockery --name=ChartLoader --output=mocks --case=underscore
type ChartLoader interface {
	Load(ctx context.Context, params Params) (*chart.Chart, error)
}

// ClusterActionConfigFactory initialises Helm action configurations for the given cluster.
func ClusterActionConfigFactory(cluster *kubernetes.Cluster, logger *zap.SugaredLogger) ActionConfigFactory {
	return func(namespace string) (*action.Configuration, error) {
		getter, err := cluster.RESTClientGetter(namespace)
		if err != nil {
			return nil, err
		}
		cfg := new(action.Configuration)
		if err := cfg.Init(getter, namespace, HelmDriver, logger.Debugf); err != nil {
			return nil, errors.Wrapf(err, "failed to initialise helm configuration for namespace '%s'", namespace)
		}
		return cfg, nil
	}
}

// RepoChartLoader downloads charts from a chart repository. Downloaded charts are cached.
type RepoChartLoader struct {
	settings *cli.EnvSettings
	mux      sync.Mutex
	charts   map[string]*chart.Chart
}

func NewRepoChartLoader() *RepoChartLoader {
	return &RepoChartLoader{
		settings: cli.New(),
		charts:   make(map[string]*chart.Chart),
	}
}

func (l *RepoChartLoader) Load(_ context.Context, params Params) (*chart.Chart, error) {
	l.mux.Lock()
	defer l.mux.Unlock()

	key := fmt.Sprintf("%s|%s|%s", params.RepoURL, params.Chart, params.Version)
	if ch, ok := l.charts[key]; ok {
		return ch, nil
	}

	name := params.Chart
	if params.RepoURL != "" {
		name = params.ChartName()
	}
	opts := action.ChartPathOptions{
		RepoURL: params.RepoURL,
		Version: params.Version,
	}
	path, err := opts.LocateChart(name, l.settings)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to locate chart '%s'", params.Chart)
	}
	ch, err := loader.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load chart from '%s'", path)
	}
	l.charts[key] = ch
	return ch, nil
}

// HelmInstaller installs the release with the Helm SDK.
type HelmInstaller struct {
	configFactory ActionConfigFactory
	chartLoader   ChartLoader
	logger        *zap.SugaredLogger
}

func NewHelmInstaller(configFactory ActionConfigFactory, chartLoader ChartLoader, logger *zap.SugaredLogger) *HelmInstaller {
	return &HelmInstaller{
		configFactory: configFactory,
		chartLoader:   chartLoader,
		logger:        logger,
	}
}

func (h *HelmInstaller) Install(ctx context.Context, namespace string, params Params) error {
	cfg, err := h.configFactory(namespace)
	if err != nil {
		return err
	}

	histClient := action.NewHistory(cfg)
	histClient.Max = 1
	_, err = histClient.Run(params.ReleaseName)
	if err != nil && err != driver.ErrReleaseNotFound {
		return errors.Wrapf(err, "while querying helm history for release '%s'", params.ReleaseName)
	}
	releaseFound := err == nil

	ch, err := h.chartLoader.Load(ctx, params)
	if err != nil {
		return err
	}
	values, err := params.ValueMap()
	if err != nil {
		return err
	}

	if !releaseFound {
		return h.install(cfg, ch, namespace, params, values)
	}
	return h.upgrade(cfg, ch, namespace, params, values)
}

func (h *HelmInstaller) install(cfg *action.Configuration, ch *chart.Chart, namespace string, params Params, values map[string]interface{}) error {
	installAction := action.NewInstall(cfg)
	installAction.ReleaseName = params.ReleaseName
	installAction.Namespace = namespace
	installAction.CreateNamespace = true
	installAction.Timeout = params.Timeout
	installAction.Wait = params.Wait
	installAction.Version = params.Version

	rel, err := installAction.Run(ch, values)
	if err != nil {
		return errors.Wrapf(err, "helm install of release '%s' failed", params.ReleaseName)
	}
	h.logRelease(rel)
	return nil
}

func (h *HelmInstaller) upgrade(cfg *action.Configuration, ch *chart.Chart, namespace string, params Params, values map[string]interface{}) error {
	upgradeAction := action.NewUpgrade(cfg)
	upgradeAction.Namespace = namespace
	upgradeAction.Timeout = params.Timeout
	upgradeAction.Wait = params.Wait
	upgradeAction.Version = params.Version
	upgradeAction.MaxHistory = HelmMaxHistory

	rel, err := upgradeAction.Run(params.ReleaseName, ch, values)
	if err != nil {
		return errors.Wrapf(err, "helm upgrade of release '%s' failed", params.ReleaseName)
	}
	h.logRelease(rel)
	return nil
}

func (h *HelmInstaller) logRelease(rel *release.Release) {
	if rel == nil || rel.Info == nil {
		return
	}
	h.logger.Debugf("Release '%s' in namespace '%s' has revision %d with status '%s'",
		rel.Name, rel.Namespace, rel.Version, rel.Info.Status)
}
