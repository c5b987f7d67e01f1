// Package metrics defines and registers all custom Prometheus metrics for the
// blog platform auth service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inkpost"

// Result label values shared by the counters below.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts first-factor login attempts.
// Label:
//   - result: "otp_sent", "rejected", or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of password login attempts, by result.",
	},
	[]string{"result"},
)

// OTPVerificationsTotal counts second-factor verifications.
// Label:
//   - result: "success" or "failure"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshesTotal counts refresh token rotations.
// Label:
//   - result: "success" or "failure"
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of refresh token rotations, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts completed logouts.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// AccessDenialsTotal counts requests refused by role checks.
// Labels:
//   - route: echo route template, e.g. "/api/v1/admin/users/:id"
//   - role: role carried by the caller's access token
var AccessDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denials_total",
		Help:      "Total number of requests refused because of the caller's role.",
	},
	[]string{"route", "role"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailQueueDepth tracks the number of messages waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailDeliveriesTotal counts asynchronous mail deliveries.
// Label:
//   - result: "success" or "failure"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of queued mail deliveries, by result.",
	},
	[]string{"result"},
)

// MailDeliveryDuration measures how long a single queued delivery takes.
var MailDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_delivery_duration_seconds",
		Help:      "Duration of a queued mail delivery from dequeue to provider response.",
		Buckets:   prometheus.DefBuckets,
	},
)
