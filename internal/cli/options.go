package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kyma-incubator/trino-reconciler/pkg/config"
	"github.com/kyma-incubator/trino-reconciler/pkg/db"
	"github.com/kyma-incubator/trino-reconciler/pkg/engine"
	"github.com/kyma-incubator/trino-reconciler/pkg/inventory"
	"github.com/kyma-incubator/trino-reconciler/pkg/kubernetes"
	"github.com/kyma-incubator/trino-reconciler/pkg/logger"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var loggerMutex sync.Mutex

type Options struct {
	Verbose        bool
	NonInteractive bool
	OutputFormat   string
	ConfigFile     string
	Config         *config.Config

	logger     *zap.SugaredLogger
	cluster    *kubernetes.Cluster
	connection db.Connection
	service    *provisioner.Service
}

func (o *Options) String() string {
	return fmt.Sprintf("CLI options: verbose=%t non-interactive=%t output=%s config=%s",
		o.Verbose, o.NonInteractive, o.OutputFormat, o.ConfigFile)
}

func (o *Options) Logger() *zap.SugaredLogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if o.logger == nil {
		o.logger = logger.NewLogger(o.Verbose)
	}
	return o.logger
}

// WithLogger replaces the logger, e.g. by a test logger.
func (o *Options) WithLogger(logger *zap.SugaredLogger) *Options {
	o.logger = logger
	return o
}

func (o *Options) Validate() error {
	for _, supportedFormat := range SupportedOutputFormats {
		if supportedFormat == o.OutputFormat {
			return nil
		}
	}
	return fmt.Errorf("Output format '%s' not supported - choose between '%s'", o.OutputFormat, strings.Join(SupportedOutputFormats, "', '"))
}

// Cluster returns the cluster clients. They are created on first use from the
// configured kubeconfig file or the KUBECONFIG_BASE64 env var.
func (o *Options) Cluster() (*kubernetes.Cluster, error) {
	if o.cluster != nil {
		return o.cluster, nil
	}
	builder := kubernetes.NewClientBuilder()
	if o.Config != nil && o.Config.Kubeconfig != "" {
		builder.WithFile(o.Config.Kubeconfig)
	}
	cluster, err := builder.Build()
	if err != nil {
		return nil, err
	}
	o.cluster = cluster
	return cluster, nil
}

// WithCluster injects the cluster clients, e.g. fake clients in tests.
func (o *Options) WithCluster(cluster *kubernetes.Cluster) *Options {
	o.cluster = cluster
	return o
}

// Installer returns the engine installer selected by the configuration.
func (o *Options) Installer() (engine.Installer, error) {
	if o.Config.Engine.Installer == config.InstallerCLI {
		return engine.NewCmdInstaller(o.Config.Engine.Binary, o.Logger()), nil
	}
	cluster, err := o.Cluster()
	if err != nil {
		return nil, err
	}
	return engine.NewHelmInstaller(engine.ClusterActionConfigFactory(cluster, o.Logger()), engine.NewRepoChartLoader(), o.Logger()), nil
}

// Connection returns the inventory database connection or nil if the inventory is disabled.
func (o *Options) Connection() (db.Connection, error) {
	if o.connection != nil || !o.Config.Inventory.Enabled {
		return o.connection, nil
	}
	connFact, err := db.NewConnectionFactory(o.Config.Inventory.DB, true, o.Logger())
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize inventory database")
	}
	conn, err := connFact.NewConnection()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to inventory database")
	}
	o.connection = conn
	return conn, nil
}

// Service returns the provisioning service wired with the configured collaborators.
func (o *Options) Service() (*provisioner.Service, error) {
	if o.service != nil {
		return o.service, nil
	}
	cluster, err := o.Cluster()
	if err != nil {
		return nil, err
	}
	installer, err := o.Installer()
	if err != nil {
		return nil, err
	}
	service, err := provisioner.NewService(cluster, installer, o.Config.Provisioner(), o.Logger())
	if err != nil {
		return nil, err
	}

	conn, err := o.Connection()
	if err != nil {
		return nil, err
	}
	if conn != nil {
		service.WithInventory(inventory.NewSQLRepository(conn))
	}
	o.service = service
	return service, nil
}

// WithService injects the provisioning service, e.g. a service using a fake installer in tests.
func (o *Options) WithService(service *provisioner.Service) *Options {
	o.service = service
	return o
}

func (o *Options) Close() error {
	if o.connection != nil {
		return o.connection.Close()
	}
	return nil
}
