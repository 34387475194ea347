package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LockAttempts tracks LockSlots outcomes
	LockAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banner_slot_lock_attempts_total",
			Help: "Number of slot lock attempts by result",
		},
		[]string{"result"}, // success, conflict, error
	)

	// ConfirmResults tracks ConfirmSale outcomes
	ConfirmResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banner_slot_confirms_total",
			Help: "Number of slot sale confirmations by result",
		},
		[]string{"result"}, // success, idempotent, mismatch, error
	)

	// SlotsReclaimed tracks expired holds released, split by who reclaimed them
	SlotsReclaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banner_slots_reclaimed_total",
			Help: "Number of expired slot holds released",
		},
		[]string{"by"}, // reaper, inline
	)

	// LockDuration tracks the latency of the lock transaction
	LockDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "banner_slot_lock_duration_seconds",
			Help:    "Duration of slot lock transactions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)
)
