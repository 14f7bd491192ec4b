package db

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dbErrorsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pydist_db_errors_total",
		Help: "A counter of failed database queries by command type.",
	},
	[]string{"type"})

var dbRetriesCount = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "pydist_db_transaction_retries_total",
		Help: "A counter of transactions retried due to serialization errors.",
	})
