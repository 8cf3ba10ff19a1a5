package webservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"chiaconnector/pkg/authz"
	"chiaconnector/pkg/middleware"
	"chiaconnector/pkg/problems"
)

// RegisterEndpoint mounts ep on app.Router at its verb and path. The endpoint's
// authorization options are resolved once, here, and enforced on every request
// before the endpoint handler runs.
func RegisterEndpoint(app *App, ep Endpoint) error {
	path, verb := ep.Path(), ep.VerbLowerCase()
	if path == "" || verb == "" {
		return fmt.Errorf("register %q: empty path or verb", ep.OperationID())
	}
	opts, err := ep.AuthorizationOptionsProvider().Get(context.Background())
	if err != nil {
		return fmt.Errorf("register %s: authz options: %w", ep.OperationID(), err)
	}

	var h http.Handler = ep.RequestHandler()
	h = app.authorize(ep, opts, h)
	if app.metrics != nil {
		h = app.metrics.instrument(ep.OperationID(), h)
	}
	app.Router.Method(strings.ToUpper(verb), path, h)
	app.log.Debugw("endpoint registered", "operationId", ep.OperationID(), "verb", verb, "path", path, "protected", opts.IsProtected)
	return nil
}

func (a *App) authorize(ep Endpoint, opts AuthzOptions, next http.Handler) http.Handler {
	if !opts.IsProtected {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.PrincipalFrom(r.Context())
		if !ok {
			problems.Write(w, r, http.StatusUnauthorized, "unauthenticated", "Authentication required", "this endpoint requires a bearer token")
			return
		}
		if missing := p.MissingRoles(opts.RequiredRoles); len(missing) > 0 {
			problems.Write(w, r, http.StatusForbidden, "missing-role", "Missing role", "required roles: "+strings.Join(missing, ", "))
			return
		}
		if a.policy != nil {
			allowed, err := a.policy.Allow(r.Context(), authz.Input{
				OperationID:   ep.OperationID(),
				Path:          ep.Path(),
				Verb:          ep.VerbLowerCase(),
				Subject:       p.Subject,
				Roles:         p.Roles,
				IsProtected:   opts.IsProtected,
				RequiredRoles: opts.RequiredRoles,
			})
			if err != nil {
				a.log.Errorw("authz policy evaluation failed", "operationId", ep.OperationID(), "err", err)
			}
			if err != nil || !allowed {
				problems.Write(w, r, http.StatusForbidden, "policy-denied", "Denied by policy", "")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
