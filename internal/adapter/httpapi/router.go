// Package httpapi serves the introspection API: which failure identities
// each category holds, the latest probe results and prometheus metrics.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reqfail/internal/adapter/probe"
	"reqfail/pkg/failure"
	"reqfail/pkg/failure/tlsfailure"
)

// Results supplies the latest probe results.
type Results interface {
	Results() []probe.Result
}

// Options configures the router.
type Options struct {
	Registry *failure.Registry
	Results  Results
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type category struct {
	Name       string   `json:"name"`
	Kinds      []string `json:"kinds"`
	Identities []string `json:"identities"`
}

type handler struct {
	reg     *failure.Registry
	results Results
}

// NewRouter builds the gin engine.
func NewRouter(o Options) *gin.Engine {
	if o.Registry == nil {
		o.Registry = failure.Default()
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	h := &handler{reg: o.Registry, results: o.Results}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(o.Logger))
	r.GET("/healthz", h.health)
	r.GET("/categories", h.categories)
	r.GET("/categories/:name", h.category)
	r.GET("/probes", h.probes)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})))
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"bound":  h.reg.Bound(),
		"tls":    tlsfailure.Loaded(),
	})
}

func (h *handler) categories(c *gin.Context) {
	out := make([]category, 0, len(failure.Categories))
	for _, cat := range failure.Categories {
		out = append(out, h.describe(cat))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) category(c *gin.Context) {
	cat, err := failure.ParseCategory(c.Param("name"))
	if errors.Is(err, failure.ErrUnknownCategory) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.describe(cat))
}

func (h *handler) describe(cat failure.Category) category {
	out := category{Name: cat.String(), Kinds: []string{}, Identities: []string{}}
	for _, k := range failure.Kinds(cat) {
		out.Kinds = append(out.Kinds, string(k))
	}
	for _, id := range h.reg.Classes(cat) {
		out.Identities = append(out.Identities, id.Name())
	}
	return out
}

func (h *handler) probes(c *gin.Context) {
	results := []probe.Result{}
	if h.results != nil {
		results = append(results, h.results.Results()...)
	}
	c.JSON(http.StatusOK, results)
}

func requestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}
