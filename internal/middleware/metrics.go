package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peerhaven_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ReportsFiled counts member reports accepted for moderation.
	ReportsFiled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerhaven_reports_filed_total",
		Help: "Total number of content reports filed",
	})

	// ModerationActions counts moderation queue decisions by outcome.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peerhaven_moderation_actions_total",
		Help: "Total number of moderation decisions by action",
	}, []string{"action"})

	// SanctionsApplied counts bans and unbans.
	SanctionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peerhaven_sanctions_total",
		Help: "Total number of account sanctions by kind",
	}, []string{"kind"})

	// BanExpiryCorrections counts accounts flipped back to active by the
	// lazy reconciliation sweep.
	BanExpiryCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerhaven_ban_expiry_corrections_total",
		Help: "Total number of expired temporary bans corrected on read",
	})

	// HelpRequestTransitions counts task state machine transitions.
	HelpRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peerhaven_help_request_transitions_total",
		Help: "Total number of help request state transitions",
	}, []string{"to"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
