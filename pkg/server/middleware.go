package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kyma-incubator/trino-reconciler/pkg/logger"
	"go.uber.org/zap"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderTenantID      = "X-Tenant-ID"
)

type contextKey string

const correlationIDKey contextKey = "correlationID"

// CorrelationID returns the correlation ID attached to the request context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// CorrelationMiddleware attaches a correlation ID to every request. An ID sent by the
// caller is reused, otherwise a new UUID is generated.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderCorrelationID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderCorrelationID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// AuditMiddleware logs one entry per request. Request bodies are never logged as they
// may carry credentials.
func AuditMiddleware(auditLogger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			logger.WithCorrelationID(auditLogger, CorrelationID(r.Context())).Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"tenant", r.Header.Get(HeaderTenantID),
				"status", recorder.status,
				"duration", time.Since(start).String())
		})
	}
}
