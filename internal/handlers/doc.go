// Package handlers implements the HTTP API: upload ingestion, batch
// editing, the deferred task feed, authentication and the usual
// health/version/metrics endpoints. Handlers translate between HTTP
// and the internal services; all business rules live below them.
package handlers
