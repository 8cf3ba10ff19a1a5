package middleware

import (
	"context"
)

type principalCtxKey struct{}

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Roles   []string
}

// Anonymous is used for unauthenticated callers when anonymous access is enabled.
var Anonymous = Principal{Subject: "anonymous"}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFrom returns the caller stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}

// MissingRoles returns the required roles the principal does not hold.
func (p Principal) MissingRoles(required []string) []string {
	if len(required) == 0 {
		return nil
	}
	held := make(map[string]struct{}, len(p.Roles))
	for _, r := range p.Roles {
		held[r] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := held[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
