package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Campaigns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launcher_campaigns_total",
			Help: "Campaign launches by result",
		}, []string{"result"},
	)
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launcher_api_requests_total",
			Help: "Platform object-creation calls by object and status",
		}, []string{"object", "code"},
	)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launcher_preview_requests_total",
			Help: "Total preview API requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "launcher_preview_request_duration_seconds",
		Help:    "Preview API latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "launcher_preview_in_flight",
		Help: "In-flight preview requests",
	})
)

const (
	ResultCreated  = "created"
	ResultFailed   = "failed"
	ResultFallback = "fallback"
)

func init() {
	prometheus.MustRegister(Campaigns, APIRequests, RequestsTotal, Latency, InFlight)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
