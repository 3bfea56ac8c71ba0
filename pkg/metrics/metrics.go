package metrics

import (
	"time"

	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const prometheusSubsystem = "trino_reconciler"

const (
	ResultSuccess         = "success"
	ResultValidationError = "validation_error"
	ResultUnauthorized    = "unauthorized"
	ResultNotFound        = "not_found"
	ResultClusterError    = "cluster_error"
	ResultDeploymentError = "deployment_error"
	ResultError           = "error"
)

// OperationMetric counts the executed operations and tracks their processing time:
// - trino_reconciler_operations_total{operation,result}
// - trino_reconciler_operation_duration_seconds{operation,result}
type OperationMetric struct {
	Counter  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	logger   *zap.SugaredLogger
}

func NewOperationMetric(logger *zap.SugaredLogger) *OperationMetric {
	return &OperationMetric{
		Counter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: prometheusSubsystem,
			Name:      "operations_total",
			Help:      "Number of executed operations",
		}, []string{"operation", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: prometheusSubsystem,
			Name:      "operation_duration_seconds",
			Help:      "Processing time of operations",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
		}, []string{"operation", "result"}),
		logger: logger,
	}
}

func (m *OperationMetric) Describe(ch chan<- *prometheus.Desc) {
	m.Counter.Describe(ch)
	m.Duration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *OperationMetric) Collect(ch chan<- prometheus.Metric) {
	m.Counter.Collect(ch)
	m.Duration.Collect(ch)
}

// Observe records the outcome of an operation.
func (m *OperationMetric) Observe(operation string, err error, duration time.Duration) {
	result := Result(err)
	counter, metricErr := m.Counter.GetMetricWithLabelValues(operation, result)
	if metricErr != nil {
		m.logger.Errorf("OperationMetric: unable to retrieve counter for operation=%s: %s", operation, metricErr)
		return
	}
	counter.Inc()

	histogram, metricErr := m.Duration.GetMetricWithLabelValues(operation, result)
	if metricErr != nil {
		m.logger.Errorf("OperationMetric: unable to retrieve histogram for operation=%s: %s", operation, metricErr)
		return
	}
	histogram.Observe(duration.Seconds())
}

// Result maps an error to the value of the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case e.IsValidationError(err):
		return ResultValidationError
	case e.IsUnauthorizedError(err):
		return ResultUnauthorized
	case e.IsNotFoundError(err):
		return ResultNotFound
	case e.IsClusterError(err):
		return ResultClusterError
	case e.IsDeploymentError(err):
		return ResultDeploymentError
	default:
		return ResultError
	}
}

// RegisterAll registers the collectors at the registerer. Nil collectors are skipped.
func RegisterAll(registerer prometheus.Registerer, collectors ...prometheus.Collector) error {
	for _, collector := range collectors {
		if collector == nil {
			continue
		}
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}
	return nil
}
