// pkg/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"chiaconnector/pkg/config"
)

var errAuthNotConfigured = errors.New("auth not configured")

// jwksCache caches JWKS sets per URL.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

// TokenVerifier parses and validates bearer access tokens.
type TokenVerifier struct {
	Issuer   string
	Audience string
	Skew     time.Duration
	keys     func(ctx context.Context) (jwk.Set, error)
}

// NewTokenVerifier builds a verifier that fetches signing keys from cfg.JWKSURL.
func NewTokenVerifier(cfg config.Config) *TokenVerifier {
	cache := &jwksCache{}
	jwksTTL := 6 * time.Hour
	v := &TokenVerifier{Issuer: strings.TrimRight(cfg.Issuer, "/"), Audience: cfg.Audience, Skew: cfg.JWTClockSkew}
	v.keys = func(ctx context.Context) (jwk.Set, error) {
		if v.Issuer == "" || cfg.JWKSURL == "" {
			return nil, errAuthNotConfigured
		}
		return cache.get(ctx, cfg.JWKSURL, jwksTTL)
	}
	return v
}

// NewStaticTokenVerifier verifies against a fixed key set.
func NewStaticTokenVerifier(set jwk.Set, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{
		Issuer:   issuer,
		Audience: audience,
		keys:     func(context.Context) (jwk.Set, error) { return set, nil },
	}
}

// Verify validates raw and returns the principal it carries.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (Principal, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return Principal{}, err
	}
	opts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true), jwt.WithVerify(true), jwt.WithAcceptableSkew(v.Skew)}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	jt, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return Principal{}, err
	}
	return principalFromToken(jt), nil
}

func principalFromToken(jt jwt.Token) Principal {
	p := Principal{Subject: jt.Subject()}
	if rs, ok := jt.Get("roles"); ok {
		switch vv := rs.(type) {
		case []any:
			for _, r := range vv {
				if s, ok := r.(string); ok && s != "" {
					p.Roles = append(p.Roles, s)
				}
			}
		case []string:
			p.Roles = append(p.Roles, vv...)
		case string:
			p.Roles = append(p.Roles, strings.Fields(vv)...)
		}
	}
	if sc, ok := jt.Get("scope"); ok {
		if s, ok := sc.(string); ok {
			p.Roles = append(p.Roles, strings.Fields(s)...)
		}
	}
	return p
}

// JWTAuth authenticates bearer tokens and stores the caller's principal in
// the request context. Requests without an Authorization header pass through
// unauthenticated; endpoints that are protected reject them at registration
// level. With allowAnonymous set they are given the anonymous principal.
func JWTAuth(v *TokenVerifier, allowAnonymous bool, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if authz == "" {
				if allowAnonymous {
					r = r.WithContext(WithPrincipal(r.Context(), Anonymous))
				}
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])
			p, err := v.Verify(r.Context(), raw)
			if errors.Is(err, errAuthNotConfigured) {
				http.Error(w, "auth not configured", http.StatusInternalServerError)
				return
			}
			if err != nil {
				log.Debugw("token rejected", "err", err, "path", r.URL.Path)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
