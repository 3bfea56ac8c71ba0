package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"github.com/kyma-incubator/trino-reconciler/pkg/logger"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"github.com/kyma-incubator/trino-reconciler/pkg/metrics"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/kyma-incubator/trino-reconciler/pkg/server"
	"github.com/kyma-incubator/trino-reconciler/pkg/tenant"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20

type deployCatalogRequest struct {
	CatalogConfig *catalog.Config   `json:"catalogConfig"`
	SecretData    map[string]string `json:"secretData"`
	Namespace     string            `json:"namespace"`
}

type connectorRequest struct {
	ConnectorType string            `json:"connectorType"`
	Config        map[string]string `json:"config"`
}

func startWebserver(ctx context.Context, o *Options) error {
	registry := prometheus.NewRegistry()
	router, err := newRouter(o, registry)
	if err != nil {
		return err
	}

	//start server process
	srv := &server.Webserver{
		Logger:     o.Logger(),
		Port:       o.Config.Server.Port,
		SSLCrtFile: o.Config.Server.SSLCrt,
		SSLKeyFile: o.Config.Server.SSLKey,
		Handler:    router,
	}
	return srv.Start(ctx) //blocking call
}

func newRouter(o *Options, registry *prometheus.Registry) (*mux.Router, error) {
	svc, err := o.Service()
	if err != nil {
		return nil, err
	}
	auditLogger, err := newAuditLogger(o)
	if err != nil {
		return nil, err
	}

	//routing
	router := mux.NewRouter()
	router.Use(server.CorrelationMiddleware)

	api := router.PathPrefix(fmt.Sprintf("/v{%s}", paramContractVersion)).Subrouter()
	api.Use(server.AuditMiddleware(auditLogger))
	api.HandleFunc("/tenants", callHandler(o, provisionTenant)).Methods("POST")
	api.HandleFunc("/tenants/status", callHandler(o, tenantStatus)).Methods("GET")
	api.HandleFunc("/catalogs", callHandler(o, deployCatalog)).Methods("POST")
	api.HandleFunc("/catalogs", callHandler(o, listCatalogs)).Methods("GET")
	api.HandleFunc("/catalogs/inventory", callHandler(o, catalogInventory)).Methods("GET")
	api.HandleFunc(fmt.Sprintf("/catalogs/{%s}", paramCatalog), callHandler(o, removeCatalog)).Methods("DELETE")
	api.HandleFunc("/connectors", callHandler(o, applyConnectorConfig)).Methods("POST")
	api.HandleFunc("/connectors", callHandler(o, listConnectors)).Methods("GET")
	api.HandleFunc("/sources", callHandler(o, connectSource)).Methods("POST")

	//health endpoints
	router.HandleFunc("/health/live", live).Methods("GET")
	router.HandleFunc("/health/ready", callHandler(o, ready)).Methods("GET")

	//metrics endpoint
	conn, err := o.Connection()
	if err != nil {
		return nil, err
	}
	var dbPoolCollector prometheus.Collector
	if conn != nil {
		dbPoolCollector = metrics.NewDbPoolCollector(conn, o.Logger())
	}
	if err := metrics.RegisterAll(registry,
		svc.Metric(),
		dbPoolCollector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	); err != nil {
		return nil, errors.Wrap(err, "failed to register metrics")
	}
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return router, nil
}

func newAuditLogger(o *Options) (*zap.SugaredLogger, error) {
	if o.Config.Server.AuditLog == "" {
		return o.Logger(), nil
	}
	auditLogger, err := logger.NewLoggerWithFile(o.Config.Server.AuditLog)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create audit log '%s'", o.Config.Server.AuditLog)
	}
	return auditLogger.Sugar(), nil
}

func callHandler(o *Options, handler func(o *Options, w http.ResponseWriter, r *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		handler(o, w, r)
	}
}

func provisionTenant(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	result, err := service(o).ProvisionTenant(r.Context(), tenantID)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, result)
}

func tenantStatus(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	status, err := service(o).TenantStatus(r.Context(), tenantID)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, status)
}

func deployCatalog(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	var body deployCatalogRequest
	if err := readBody(w, r, &body); err != nil {
		sendError(o, w, r, err)
		return
	}
	if body.Namespace == "" {
		body.Namespace = tenant.NamespaceName(tenantID)
	}
	if body.Namespace != tenant.NamespaceName(tenantID) {
		sendError(o, w, r, e.NewValidationError("namespace '%s' does not belong to tenant '%s'", body.Namespace, tenantID))
		return
	}
	result, err := service(o).DeployCatalog(r.Context(), body.CatalogConfig, body.SecretData, body.Namespace)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Catalog deployed successfully",
		"result":  result,
	})
}

func listCatalogs(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	catalogs, err := service(o).ListCatalogs(r.Context(), tenantID)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, catalogs)
}

func catalogInventory(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	entries, err := service(o).CatalogInventory(r.Context(), tenantID)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, entries)
}

func removeCatalog(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	catalogName, err := server.NewParams(r).String(paramCatalog)
	if err != nil {
		sendError(o, w, r, e.NewValidationError(err.Error()))
		return
	}
	if err := service(o).RemoveCatalog(r.Context(), tenantID, catalogName); err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, map[string]string{"message": "Catalog removed successfully"})
}

func applyConnectorConfig(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	var body connectorRequest
	if err := readBody(w, r, &body); err != nil {
		sendError(o, w, r, err)
		return
	}
	result, err := service(o).ApplyConnectorConfig(r.Context(), body.ConnectorType, body.Config, tenantID)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Connector configuration applied successfully",
		"result":  result,
	})
}

func connectSource(o *Options, w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(o, w, r)
	if !ok {
		return
	}
	var body connectorRequest
	if err := readBody(w, r, &body); err != nil {
		sendError(o, w, r, err)
		return
	}
	result, err := service(o).ConnectSource(r.Context(), body.ConnectorType, body.Config, tenantID)
	if err != nil {
		sendError(o, w, r, err)
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Source connected successfully",
		"result":  result,
	})
}

func listConnectors(o *Options, w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(o, w, r); !ok {
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, service(o).ListConnectors())
}

func live(w http.ResponseWriter, _ *http.Request) {
	server.SendHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ready(o *Options, w http.ResponseWriter, r *http.Request) {
	cluster, err := o.Cluster()
	if err == nil {
		err = cluster.CRDEstablished(r.Context(), manifest.CatalogCRDName)
	}
	if err != nil {
		o.Logger().Warnf("Readiness check failed: %s", err)
		server.SendHTTPError(w, http.StatusServiceUnavailable, server.HTTPErrorResponse{Error: err.Error()})
		return
	}
	server.SendHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// service is only called after newRouter resolved the service successfully.
func service(o *Options) *provisioner.Service {
	s, _ := o.Service()
	return s
}

func requireTenant(o *Options, w http.ResponseWriter, r *http.Request) (string, bool) {
	params := server.NewParams(r)
	contractV, err := params.Int64(paramContractVersion)
	if err != nil || contractV != supportedContractVersion {
		sendError(o, w, r, e.NewValidationError("contract version '%s' not supported", mux.Vars(r)[paramContractVersion]))
		return "", false
	}
	tenantID, _ := params.Header(server.HeaderTenantID)
	if err := tenant.ValidateID(tenantID); err != nil {
		sendError(o, w, r, err)
		return "", false
	}
	return tenantID, true
}

func readBody(w http.ResponseWriter, r *http.Request, target interface{}) error {
	reqBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		// *http.MaxBytesError is not available before go 1.19
		if strings.Contains(err.Error(), "request body too large") {
			return e.NewValidationError("request body too large: limit is %d bytes", maxRequestBodySize)
		}
		return errors.Wrap(err, "Failed to read received JSON payload")
	}
	if err := json.Unmarshal(reqBody, target); err != nil {
		return e.NewValidationError("Failed to unmarshal JSON payload: %s", err)
	}
	return nil
}

// httpStatus maps the error taxonomy to HTTP status codes.
func httpStatus(err error) int {
	switch {
	case e.IsValidationError(err):
		return http.StatusBadRequest
	case e.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case e.IsNotFoundError(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func sendError(o *Options, w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	correlationID := server.CorrelationID(r.Context())
	log := logger.WithCorrelationID(o.Logger(), correlationID)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorf("Request %s %s failed: %s", r.Method, r.URL.Path, err)
		message = fmt.Sprintf("%s (correlation ID: %s)", http.StatusText(status), correlationID)
	} else {
		log.Infof("Request %s %s rejected with status %d: %s", r.Method, r.URL.Path, status, err)
	}
	server.SendHTTPError(w, status, server.HTTPErrorResponse{Error: message})
}
