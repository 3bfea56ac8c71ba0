package metrics

import (
	"database/sql"
	"fmt"

	"github.com/kyma-incubator/trino-reconciler/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	measurementAccuracyUnit = "milliseconds"
	defaultPoolName         = "inventory"
)

const (
	dbInUse              = "in_use"
	dbIdle               = "idle"
	dbMaxOpenConnections = "max_open_connections"
	dbOpenConnections    = "open_connections"
	dbWaitCount          = "wait_count"
	dbWaitDuration       = "wait_duration"
)

type dbMetric struct {
	value float64
	name  string
}

type metricDefinition func(stats sql.DBStats) dbMetric

// DbPoolCollector exposes the connection pool statistics of the inventory database:
// - trino_reconciler_db_pool_stats{pool,metric}
type DbPoolCollector struct {
	conn              db.Connection
	logger            *zap.SugaredLogger
	desc              *prometheus.GaugeVec
	metricDefinitions []metricDefinition
}

func NewDbPoolCollector(conn db.Connection, logger *zap.SugaredLogger) *DbPoolCollector {
	return &DbPoolCollector{
		conn:   conn,
		logger: logger,
		desc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: prometheusSubsystem,
			Name:      "db_pool_stats",
			Help:      "Stats from go SQL database pool",
		}, []string{"pool", "metric"}),
		metricDefinitions: []metricDefinition{
			func(s sql.DBStats) dbMetric { return dbMetric{float64(s.InUse), dbInUse} },
			func(s sql.DBStats) dbMetric { return dbMetric{float64(s.Idle), dbIdle} },
			func(s sql.DBStats) dbMetric { return dbMetric{float64(s.MaxOpenConnections), dbMaxOpenConnections} },
			func(s sql.DBStats) dbMetric { return dbMetric{float64(s.OpenConnections), dbOpenConnections} },
			func(s sql.DBStats) dbMetric { return dbMetric{float64(s.WaitCount), dbWaitCount} },
			func(s sql.DBStats) dbMetric {
				return dbMetric{
					float64(s.WaitDuration.Milliseconds()),
					fmt.Sprintf("%v_%s", dbWaitDuration, measurementAccuracyUnit),
				}
			},
		},
	}
}

func (c *DbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	c.desc.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (c *DbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.conn == nil {
		c.logger.Error("unable to collect db pool stats: connection is nil")
		return
	}
	stats := c.conn.DB().Stats()
	for _, definition := range c.metricDefinitions {
		metric := definition(stats)
		gauge, err := c.desc.GetMetricWithLabelValues(defaultPoolName, metric.name)
		if err != nil {
			c.logger.Errorf("dbPoolCollector: unable to build gauge for %s(%s): %s", defaultPoolName, metric.name, err)
			continue
		}
		gauge.Set(metric.value)
	}
	c.desc.Collect(ch)
}
