// Package webservice holds the contract between an HTTP endpoint and the
// router it is mounted on, plus the shared registration helper that applies
// authorization and instrumentation uniformly.
package webservice

import (
	"context"
	"net/http"
)

// Endpoint binds one route to one operation.
type Endpoint interface {
	Path() string
	VerbLowerCase() string
	OperationID() string
	AuthorizationOptionsProvider() AuthzOptionsProvider
	Register(app *App) (Endpoint, error)
	RequestHandler() http.HandlerFunc
}

// AuthzOptions declares what a caller needs before the handler runs.
type AuthzOptions struct {
	IsProtected   bool     `json:"isProtected"`
	RequiredRoles []string `json:"requiredRoles"`
}

// AuthzOptionsProvider resolves an endpoint's authorization requirements.
type AuthzOptionsProvider interface {
	Get(ctx context.Context) (AuthzOptions, error)
}

// AuthzOptionsFunc adapts a function to AuthzOptionsProvider.
type AuthzOptionsFunc func(ctx context.Context) (AuthzOptions, error)

func (f AuthzOptionsFunc) Get(ctx context.Context) (AuthzOptions, error) { return f(ctx) }

// ProtectedNoRoles requires an authenticated caller and no particular role.
func ProtectedNoRoles() AuthzOptionsProvider {
	return AuthzOptionsFunc(func(context.Context) (AuthzOptions, error) {
		return AuthzOptions{IsProtected: true, RequiredRoles: []string{}}, nil
	})
}
