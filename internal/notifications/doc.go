// Package notifications publishes batch rating outcomes to ntfy.
//
// The worker reports each finished rating and each job that fails for good.
// An unset notifications.ntfy_topic yields a no-op service, and
// failures_only suppresses messages for ratings that pass their gate.
package notifications
