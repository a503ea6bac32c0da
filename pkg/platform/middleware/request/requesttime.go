package request

import (
	"net/http"
	"time"

	"starbeam/pkg/requestcontext"
)

// RequestTime pins one "now" for the whole request so every audit event
// emitted while serving it carries the same timestamp.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
