package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackpeek_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Search metrics
	SearchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_searches_processed_total",
			Help: "Total number of message searches processed",
		},
		[]string{"status"},
	)

	// Reaction loader metrics
	ReactionFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_reaction_fetches_total",
			Help: "Total number of per-message reaction fetches",
		},
		[]string{"status"},
	)

	ReactionBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackpeek_reaction_batches_total",
			Help: "Total number of reaction fetch batches completed",
		},
	)

	ReactionBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slackpeek_reaction_batch_duration_seconds",
			Help:    "Duration of reaction fetch batches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReactionLoadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slackpeek_reaction_loads_in_flight",
			Help: "Number of reaction load invocations currently running",
		},
	)

	// Emoji cache metrics
	EmojiResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_emoji_resolutions_total",
			Help: "Total number of emoji name resolutions",
		},
		[]string{"tier", "status"},
	)

	EmojiRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_emoji_refreshes_total",
			Help: "Total number of custom emoji cache refreshes",
		},
		[]string{"status"},
	)

	CustomEmojiCached = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slackpeek_custom_emoji_cached",
			Help: "Number of custom emoji cached per workspace",
		},
		[]string{"workspace"},
	)

	// Slack API metrics
	SlackAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_slack_api_calls_total",
			Help: "Total number of Slack API calls",
		},
		[]string{"method", "status"},
	)

	SlackAPICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackpeek_slack_api_call_duration_seconds",
			Help:    "Duration of Slack API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Database metrics
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackpeek_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackpeek_database_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
