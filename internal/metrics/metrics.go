// Package metrics содержит счётчики Prometheus для движка репутации
// и HTTP-сервер эндпоинта /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "reputation"

// Исходы передачи для метки outcome.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeLimited  = "limited"
	OutcomeFailed   = "persist_failed"
)

var (
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfers and admin adjustments by origin and outcome.",
		},
		[]string{"origin", "outcome"},
	)

	snapshotSaveSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_save_seconds",
			Help:      "Latency of synchronous snapshot writes.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	limiterSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limiter_swept_total",
			Help:      "Expired cooldown and daily counter entries removed by sweep.",
		},
	)
)

// ObserveTransfer учитывает одну передачу.
func ObserveTransfer(origin, outcome string) {
	transfersTotal.WithLabelValues(origin, outcome).Inc()
}

// ObserveSnapshotSave учитывает длительность записи снимка.
func ObserveSnapshotSave(d time.Duration) {
	snapshotSaveSeconds.Observe(d.Seconds())
}

// ObserveSweep учитывает очищенные записи лимитера.
func ObserveSweep(removed int) {
	limiterSweptTotal.Add(float64(removed))
}

// Serve отдаёт /metrics на addr до отмены ctx.
func Serve(ctx context.Context, addr string) error {
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
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ошибка остановки сервера метрик")
		}
	}()

	log.WithField("addr", addr).Info("Сервер метрик запущен")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
