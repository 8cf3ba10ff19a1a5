// pkg/middleware/recover.go
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recover turns a panic anywhere below it into the same 500 body the
// endpoints use for failed operations.
func Recover(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := string(debug.Stack())
					log.Errorw("panic", "err", rec, "path", r.URL.Path, "reqid", RequestIDFrom(r.Context()), "stack", stack)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"message": "Internal Server Error",
						"error":   fmt.Sprint(rec),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
