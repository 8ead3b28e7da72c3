package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts posts appended to the feed.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileshare_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostsRejected counts ingestion requests rejected by reason.
	PostsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileshare_posts_rejected_total",
		Help: "Total number of rejected post submissions by reason",
	}, []string{"reason"})

	// MediaStored counts stored attachments by preview kind.
	MediaStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileshare_media_stored_total",
		Help: "Total number of stored media files by kind",
	}, []string{"kind"})

	// MediaBytesStored counts bytes written by the media store.
	MediaBytesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileshare_media_bytes_stored_total",
		Help: "Total bytes written to the upload directory",
	})

	// PreviewFailures counts image previews that could not be generated.
	PreviewFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileshare_preview_failures_total",
		Help: "Total number of image previews that failed to render",
	})

	// SalesQueries counts sales mock queries by outcome.
	SalesQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileshare_sales_queries_total",
		Help: "Total number of sales mock queries",
	}, []string{"outcome"})

	// WebSocketConnections is the gauge of live feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fileshare_websocket_connections",
		Help: "Number of active live feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileshare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileshare_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)
