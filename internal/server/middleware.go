package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yourusername/taixiu-oracle/internal/logger"
	"github.com/yourusername/taixiu-oracle/internal/metrics"
)

// accessLog logs every request and records it in the HTTP metrics, labelled
// by route pattern so path parameters do not explode cardinality.
func accessLog(al *logger.AccessLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}

				metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), duration.Seconds())
				al.LogRequest(middleware.GetReqID(r.Context()), r.Method, r.URL.Path, status, ww.BytesWritten(), duration, r.RemoteAddr)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
