package postgres

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "brioche",
			Name:      "query_duration_seconds",
			Help:      "A histogram of the latency in seconds for database operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(duration)
}

// observe records the duration of a database operation, partitioned by
// operation and by the outcome variant so dashboards can separate timeouts
// from constraint violations from plain server errors.
func observe(operation string, err error, start time.Time) {
	duration.With(
		prometheus.Labels{
			"operation": operation,
			"outcome":   outcome(err),
		},
	).Observe(time.Since(start).Seconds())
}

// outcome returns a stable label for each of the typed error variants.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	var (
		constraintErr   *ConstraintError
		serverErr       *ServerError
		resultErr       *ResultError
		rollbackErr     *RollbackError
		unclassifiedErr *UnclassifiedError
	)

	switch {
	case errors.Is(err, ErrQueryTimeout):
		return "query_timeout"
	case errors.Is(err, ErrConnectionUnavailable):
		return "connection_unavailable"
	case errors.As(err, &constraintErr):
		return "constraint_violated"
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.As(err, &resultErr):
		return "unexpected_result_type"
	case errors.As(err, &rollbackErr):
		return "transaction_rolled_back"
	case errors.As(err, &unclassifiedErr):
		return "unclassified"
	}

	return "unclassified"
}
