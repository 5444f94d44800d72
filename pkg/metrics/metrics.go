package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "humanizapp", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "humanizapp", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// BirthPlanOps counts birth plan operations by operation and outcome
	// (ok, invalid, not_found, conflict, error).
	BirthPlanOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "humanizapp", Name: "birth_plan_operations_total", Help: "Number of birth plan operations by operation and outcome."},
		[]string{"op", "outcome"},
	)
	UserLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "humanizapp", Name: "user_logins_total", Help: "Number of login attempts by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(BirthPlanOps)
	reg.MustRegister(UserLogins)
}
