package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admissions counts every admission decision by outcome ("admitted" or a
// rejection reason).
var Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quietpost_admissions_total",
	Help: "Admission decisions by outcome.",
}, []string{"outcome"})

// Forwards counts feedback successfully relayed to the administrator.
var Forwards = promauto.NewCounter(prometheus.CounterOpts{
	Name: "quietpost_forwards_total",
	Help: "Feedback messages forwarded to the administrator.",
})

// RateLimitDegraded counts rate-limit checks that failed open because the
// counter store was unavailable.
var RateLimitDegraded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "quietpost_ratelimit_degraded_total",
	Help: "Rate limit checks that failed open due to store errors.",
})

// MirrorErrors counts best-effort block list mirror updates that failed.
var MirrorErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "quietpost_mirror_errors_total",
	Help: "Block list mirror updates that failed.",
})
