package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "okxbalance_cycles_total", Help: "Poll cycles by outcome"},
		[]string{"outcome"},
	)
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "okxbalance_fetches_total", Help: "Balance fetches by result"},
		[]string{"result"},
	)
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "okxbalance_deliveries_total", Help: "Telegram deliveries by result"},
		[]string{"result"},
	)
	LastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "okxbalance_last_delivery_timestamp_seconds", Help: "Unix time of the last delivered notification"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, FetchesTotal, DeliveriesTotal, LastSuccess)
}

func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve exposes /metrics on addr in the background. A failure to listen is
// logged; polling carries on without metrics.
func Serve(addr string, log zerolog.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
