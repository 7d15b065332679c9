package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_ingested_total",
		Help: "The total number of ingested messages",
	}, []string{"channel"})

	DuplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_duplicates_total",
		Help: "Total number of messages dropped as duplicates by kind (exact, similar, reinsert)",
	}, []string{"kind"})

	DispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_dispatched_total",
		Help: "Total number of messages delivered by destination",
	}, []string{"destination"})

	SuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_suppressed_total",
		Help: "Total number of messages suppressed by reason",
	}, []string{"reason"})

	ClassificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_classification_failures_total",
		Help: "Total number of classification attempts that failed after retries",
	})

	ClassificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_classification_duration_seconds",
		Help:    "Duration of classification requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	EmbeddingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_embedding_failures_total",
		Help: "Total number of fingerprint attempts that fell back to hash-only dedup",
	})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_delivery_failures_total",
		Help: "Total number of failed deliveries by destination",
	}, []string{"destination"})

	WatermarkLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_watermark_lag_messages",
		Help: "Distance between the newest fetched message id and the stored watermark",
	}, []string{"channel"})

	ReaderFloodWaitSecondsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_reader_flood_wait_seconds_total",
		Help: "Total time in seconds spent waiting for Telegram flood control",
	}, []string{"channel"})

	ReaderFetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_reader_fetch_requests_total",
		Help: "Total number of history fetch requests to Telegram",
	}, []string{"channel", "status"})

	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_enrichment_failures_total",
		Help: "Total number of best-effort enrichment failures by stage (ocr, links)",
	}, []string{"stage"})
)
