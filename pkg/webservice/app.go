package webservice

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chiaconnector/pkg/authz"
)

// App is the router endpoints register on, with the collaborators the
// registration helper applies to every endpoint.
type App struct {
	Router  chi.Router
	log     *zap.SugaredLogger
	metrics *Metrics
	policy  *authz.Policy
}

type AppOption func(*App)

func WithLogger(log *zap.SugaredLogger) AppOption { return func(a *App) { a.log = log } }

func WithMetrics(m *Metrics) AppOption { return func(a *App) { a.metrics = m } }

// WithPolicy adds a Rego decision on top of the declared authz options for
// protected endpoints.
func WithPolicy(p *authz.Policy) AppOption { return func(a *App) { a.policy = p } }

func NewApp(r chi.Router, opts ...AppOption) *App {
	a := &App{Router: r, log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(a)
	}
	return a
}
