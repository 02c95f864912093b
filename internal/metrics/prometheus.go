package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devpulse_run_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpulse_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"},
	)

	DegradedRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devpulse_degraded_runs_total",
			Help: "Total runs downgraded to the lexical fallback mid-flight",
		},
	)

	RecordsAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devpulse_records_analyzed_total",
			Help: "Total content records run through semantic analysis",
		},
	)

	EngineersScored = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "devpulse_engineers_scored",
			Help:    "Peer set size per run",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	TeamMeanScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "devpulse_team_mean_score",
			Help: "Mean total score of the most recent run",
		},
	)

	EmbeddingTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpulse_embedding_tokens_used",
			Help: "Total embedding API tokens used",
		},
		[]string{"model"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpulse_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devpulse_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(DegradedRuns)
	prometheus.MustRegister(RecordsAnalyzed)
	prometheus.MustRegister(EngineersScored)
	prometheus.MustRegister(TeamMeanScore)
	prometheus.MustRegister(EmbeddingTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
