// Package metrics defines the Prometheus collectors exposed by the
// media share server: HTTP traffic, database queries, upload pipeline
// outcomes and batch edit actions.
package metrics
