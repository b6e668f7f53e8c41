package metrics

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds custom Prometheus metrics.
type MetricsManager struct {
	Registry               *prometheus.Registry
	BidsPlacedTotal        prometheus.Counter
	BidsRejectedTotal      *prometheus.CounterVec
	AuctionsClosedTotal    *prometheus.CounterVec
	WinnerEmailsTotal      *prometheus.CounterVec
	QuestionsAskedTotal    prometheus.Counter
	QuestionsAnsweredTotal prometheus.Counter
	AuctionAPIErrorsTotal  *prometheus.CounterVec
	AuctionAPILatency      *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers custom Prometheus metrics.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	bidsPlacedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "bids_placed_total",
		Help:      "Total number of bids accepted.",
	})
	bidsRejectedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "bids_rejected_total",
		Help:      "Total number of bids rejected, by reason.",
	}, []string{"reason"})
	auctionsClosedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "auctions_closed_total",
		Help:      "Total number of auctions closed, split by outcome.",
	}, []string{"outcome"}) // "won" or "no_bids"
	winnerEmailsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "winner_emails_total",
		Help:      "Total number of winner notification emails, by result.",
	}, []string{"result"}) // "sent" or "failed"
	questionsAskedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "questions_asked_total",
		Help:      "Total number of questions asked.",
	})
	questionsAnsweredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "questions_answered_total",
		Help:      "Total number of questions answered.",
	})
	auctionAPIErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by method.",
	}, []string{"method", "error_type"})
	auctionAPILatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	registry.MustRegister(
		bidsPlacedTotal,
		bidsRejectedTotal,
		auctionsClosedTotal,
		winnerEmailsTotal,
		questionsAskedTotal,
		questionsAnsweredTotal,
		auctionAPIErrorsTotal,
		auctionAPILatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:               registry,
		BidsPlacedTotal:        bidsPlacedTotal,
		BidsRejectedTotal:      bidsRejectedTotal,
		AuctionsClosedTotal:    auctionsClosedTotal,
		WinnerEmailsTotal:      winnerEmailsTotal,
		QuestionsAskedTotal:    questionsAskedTotal,
		QuestionsAnsweredTotal: questionsAnsweredTotal,
		AuctionAPIErrorsTotal:  auctionAPIErrorsTotal,
		AuctionAPILatency:      auctionAPILatency,
	}
}

// StartMetricsServer starts an HTTP server to expose Prometheus metrics.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
