package api

import (
	"net/http"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var skipLogging = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

type Middleware struct {
	logger logger.Logger
}

func NewMiddleware(log logger.Logger) *Middleware {
	return &Middleware{logger: log.WithFields(map[string]interface{}{"component": "http"})}
}

// Log writes one structured line per request, tagged with the chi request id.
func (m *Middleware) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := skipLogging[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		m.logger.Info("request handled", map[string]interface{}{
			"requestId": chimw.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
		})
	})
}
