package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_trades_total",
			Help: "Total number of recorded trade results",
		},
		[]string{"outcome"},
	)

	tradeAmount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_engine_trade_amount",
			Help:    "Distribution of recorded trade amounts",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Allocation metrics
	allocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_allocations_total",
			Help: "Total number of allocation decisions",
		},
		[]string{"decision"},
	)

	// Safety metrics
	emergencyStopsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_engine_emergency_stops_total",
			Help: "Total number of emergency stop activations",
		},
	)

	// Strategy metrics
	activeStrategy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_active_strategy",
			Help: "Currently active strategy profile (1 for active)",
		},
		[]string{"strategy"},
	)

	strategyConfidence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_strategy_confidence",
			Help: "Confidence of the latest strategy recommendation",
		},
	)

	// Market metrics
	marketVolatility = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_market_volatility",
			Help: "Latest observed market volatility",
		},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradeAmount)
	prometheus.MustRegister(allocationsTotal)
	prometheus.MustRegister(emergencyStopsTotal)
	prometheus.MustRegister(activeStrategy)
	prometheus.MustRegister(strategyConfidence)
	prometheus.MustRegister(marketVolatility)
}

// MetricsHandler handles the Prometheus metrics endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint.
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records a trade result metric.
func RecordTrade(success bool, amount float64) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	tradesTotal.WithLabelValues(outcome).Inc()
	tradeAmount.Observe(amount)
}

// RecordAllocation records an allocation decision metric.
func RecordAllocation(approved bool) {
	decision := "approved"
	if !approved {
		decision = "rejected"
	}
	allocationsTotal.WithLabelValues(decision).Inc()
}

// RecordEmergencyStop records an emergency stop activation.
func RecordEmergencyStop() {
	emergencyStopsTotal.Inc()
}

// SetActiveStrategy marks the given strategy id as active and clears all
// previously reported ones.
func SetActiveStrategy(id string) {
	activeStrategy.Reset()
	activeStrategy.WithLabelValues(id).Set(1)
}

// SetStrategyConfidence updates the latest recommendation confidence.
func SetStrategyConfidence(confidence float64) {
	strategyConfidence.Set(confidence)
}

// SetMarketVolatility updates the latest observed volatility.
func SetMarketVolatility(volatility float64) {
	marketVolatility.Set(volatility)
}
