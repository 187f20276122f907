// Package metrics defines the custom Prometheus metrics of the stub
// backend. It is the single source of truth for metric names, labels,
// and help strings; promauto registers everything with the default
// registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "horizon"

// SignupsTotal counts account registrations.
// Label:
//   - result: "ok" or "conflict"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok" or "rejected"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TasksCreatedTotal counts newly posted tasks.
// Label:
//   - category: the task category supplied on creation
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks posted, by category.",
	},
	[]string{"category"},
)

// TaskTransitionsTotal counts task lifecycle transitions.
// Label:
//   - to: the target status ("assigned", "completed")
var TaskTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_transitions_total",
		Help:      "Total number of task status transitions, by target status.",
	},
	[]string{"to"},
)

// MessagesSentTotal counts messages accepted by the backend.
var MessagesSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of messages accepted.",
	},
)

// ConversationsCreatedTotal counts create-conversation requests that
// succeeded, including ones resolved to an existing pair thread.
var ConversationsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversations_created_total",
		Help:      "Total number of successful create-conversation requests.",
	},
)
