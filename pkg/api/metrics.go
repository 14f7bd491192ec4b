package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pydist/pydist/pkg/httputil"
)

var requestHistograms = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "pydist_api_request_duration_seconds",
		Help: "request durations for the package index API",
	},
	[]string{"operation", "code"})

// MetricsMiddleware reports a duration observation per request, labeled by a
// coarse operation name rather than the raw path.
func MetricsMiddleware(operation string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mrw := httputil.NewMetricResponseWriter(w)
		next.ServeHTTP(mrw, r)
		requestHistograms.
			WithLabelValues(operation, strconv.Itoa(mrw.StatusCode)).
			Observe(time.Since(start).Seconds())
	})
}
