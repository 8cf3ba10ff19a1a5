package webservices

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chiaconnector/internal/connector/oas"
	"chiaconnector/pkg/logger"
	"chiaconnector/pkg/webservice"
)

type GetPrometheusExporterMetricsOptions struct {
	LogLevel string
	Gatherer prometheus.Gatherer
}

const GetPrometheusExporterMetricsEndpointClassName = "GetPrometheusExporterMetricsEndpointV1"

// GetPrometheusExporterMetricsEndpoint exposes the connector's own metrics
// registry in the text exposition format.
type GetPrometheusExporterMetricsEndpoint struct {
	log     *zap.SugaredLogger
	meta    oas.OperationMeta
	handler http.Handler
}

var _ webservice.Endpoint = (*GetPrometheusExporterMetricsEndpoint)(nil)

func NewGetPrometheusExporterMetricsEndpoint(opts *GetPrometheusExporterMetricsOptions) (*GetPrometheusExporterMetricsEndpoint, error) {
	fnTag := GetPrometheusExporterMetricsEndpointClassName + "#New()"
	if opts == nil {
		return nil, checkArg(nil, fnTag, "options")
	}
	if err := checkArg(opts.Gatherer, fnTag, "options.gatherer"); err != nil {
		return nil, err
	}
	meta, err := oas.Lookup(oas.GetPrometheusExporterMetricsPath, http.MethodGet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnTag, err)
	}
	level := opts.LogLevel
	if level == "" {
		level = "INFO"
	}
	log := logger.GetOrCreate(logger.Options{Level: level, Label: GetPrometheusExporterMetricsEndpointClassName})
	return &GetPrometheusExporterMetricsEndpoint{
		log:  log,
		meta: meta,
		handler: promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{
			ErrorLog:      zap.NewStdLog(log.Desugar()),
			ErrorHandling: promhttp.HTTPErrorOnError,
		}),
	}, nil
}

func (e *GetPrometheusExporterMetricsEndpoint) Path() string { return e.meta.Path }

func (e *GetPrometheusExporterMetricsEndpoint) VerbLowerCase() string { return e.meta.VerbLowerCase }

func (e *GetPrometheusExporterMetricsEndpoint) OperationID() string { return e.meta.OperationID }

func (e *GetPrometheusExporterMetricsEndpoint) AuthorizationOptionsProvider() webservice.AuthzOptionsProvider {
	return webservice.ProtectedNoRoles()
}

func (e *GetPrometheusExporterMetricsEndpoint) Register(app *webservice.App) (webservice.Endpoint, error) {
	if err := webservice.RegisterEndpoint(app, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *GetPrometheusExporterMetricsEndpoint) RequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.log.Debugf("%s - %s", e.VerbLowerCase(), e.Path())
		e.handler.ServeHTTP(w, r)
	}
}
