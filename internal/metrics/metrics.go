// Package metrics holds the Prometheus instruments shared by citecheck components.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// CaseLawRequests counts case-law API calls by endpoint and outcome
	CaseLawRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citecheck_caselaw_requests_total",
		Help: "Case-law API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// LimiterWait tracks time spent waiting on the shared rate limiter
	LimiterWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "citecheck_limiter_wait_seconds",
		Help:    "Time spent waiting for the shared rate limiter",
		Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	// BreakerState is 0 closed, 1 open, 2 half-open
	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citecheck_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	})

	// AICalls counts model completions by vendor and pipeline stage
	AICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citecheck_ai_calls_total",
		Help: "AI completions by vendor and stage",
	}, []string{"vendor", "stage"})

	// Verifications counts completed verification runs by composite status
	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citecheck_verifications_total",
		Help: "Verification runs by composite status",
	}, []string{"status"})

	// CacheLookups counts result-cache lookups by tier and outcome
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citecheck_cache_lookups_total",
		Help: "Result cache lookups by tier and outcome",
	}, []string{"tier", "outcome"})

	// SearchTasks counts orchestrated search tasks by outcome
	SearchTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citecheck_search_tasks_total",
		Help: "Orchestrated search tasks by outcome",
	}, []string{"outcome"})
)

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
