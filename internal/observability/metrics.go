package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service.
// Each instance owns a private registry, so tests can build as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	transiciones   *prometheus.CounterVec
	erroresAlmacen *prometheus.CounterVec
	rateLimitHits  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visitas_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visitas_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		transiciones: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visitas_transiciones_total",
			Help: "Visit workflow actions by action and result",
		}, []string{"accion", "resultado"}),

		erroresAlmacen: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visitas_errores_almacenamiento_total",
			Help: "Storage failures by operation",
		}, []string{"operacion"}),

		rateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visitas_rate_limit_rechazos_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"limiter"}),
	}
}

// ObservarTransicion records the outcome of a workflow action
// (crear, editar, aprobar, rechazar, eliminar). A nil receiver is a no-op.
func (m *Metrics) ObservarTransicion(accion, resultado string) {
	if m == nil {
		return
	}
	m.transiciones.WithLabelValues(accion, resultado).Inc()
}

func (m *Metrics) ObservarErrorAlmacenamiento(operacion string) {
	if m == nil {
		return
	}
	m.erroresAlmacen.WithLabelValues(operacion).Inc()
}

func (m *Metrics) ObservarRateLimit(limiter string) {
	if m == nil {
		return
	}
	m.rateLimitHits.WithLabelValues(limiter).Inc()
}

// GinMiddleware instruments every request. The route template (c.FullPath) is
// used as label so ids do not explode the cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
