package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/httputil"
	"github.com/pydist/pydist/pkg/logging"
)

// NewHandler builds the HTTP surface of the index: the legacy distutils
// endpoint per owner, the pip-compatible simple pages, downloads, and the
// operational endpoints.
func NewHandler(c *Controller) http.Handler {
	r := chi.NewRouter()
	r.Use(httputil.LoggingMiddleware(logging.Fields{
		logging.ServiceNameFieldKey: "pydist",
	}))
	r.Use(auth.BasicAuthMiddleware(c.Auth))

	r.Method(http.MethodGet, "/_health", http.HandlerFunc(c.healthHandler))
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/classifiers",
		MetricsMiddleware("list_classifiers", http.HandlerFunc(c.ListClassifiersHandler)))

	r.Method(http.MethodPost, "/{owner}/pypi",
		MetricsMiddleware("distutils", http.HandlerFunc(c.HandleDistutils)))
	r.Method(http.MethodPost, "/{owner}/pypi/",
		MetricsMiddleware("distutils", http.HandlerFunc(c.HandleDistutils)))
	r.Method(http.MethodGet, "/{owner}/simple/",
		MetricsMiddleware("simple_index", http.HandlerFunc(c.SimpleIndexHandler)))
	r.Method(http.MethodGet, "/{owner}/simple/{package}/",
		MetricsMiddleware("simple_package", http.HandlerFunc(c.SimplePackageHandler)))
	r.Method(http.MethodGet, "/{owner}/dists/{package}/{version}/{filename}",
		MetricsMiddleware("download", http.HandlerFunc(c.DownloadHandler)))
	return r
}

func (c *Controller) healthHandler(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := c.DB.GetPrimitive(r.Context(), &one, `SELECT 1`); err != nil {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("alive"))
}
