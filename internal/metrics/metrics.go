package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homesite"

var (
	// RevisionFailures counts revision writes or prunes that failed and were swallowed.
	RevisionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revision_failures_total",
		Help:      "Revision persistence or cleanup failures, by stage.",
	}, []string{"stage"})

	// RevisionsRecorded counts persisted revisions by type.
	RevisionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revisions_recorded_total",
		Help:      "Revisions written, by revision type.",
	}, []string{"type"})

	// RevisionsPruned counts revisions removed by the retention cap.
	RevisionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revisions_pruned_total",
		Help:      "Revisions deleted by the per-post retention cap.",
	})

	// CommentsRejected counts refused comment submissions by reason.
	CommentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_rejected_total",
		Help:      "Comment submissions rejected before storage, by reason.",
	}, []string{"reason"})

	// CommentsAccepted counts stored comments.
	CommentsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_accepted_total",
		Help:      "Comments stored.",
	})

	// ScheduledPublishes counts posts flipped to published by the scheduler.
	ScheduledPublishes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_publishes_total",
		Help:      "Posts published by the scheduler.",
	})

	// HTTPRequests counts served requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
