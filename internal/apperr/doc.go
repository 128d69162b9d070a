// Package apperr defines the error taxonomy shared by the ingestion
// pipeline, the batch editor and the HTTP boundary.
//
// Every failure a client can observe is an *Error carrying an HTTP
// status, a human-readable message and an optional machine-readable
// code (e.g. "error.directoryNotFound"). Lower layers wrap causes with
// %w as usual; the boundary converts anything that is not an *Error
// into a generic 500.
package apperr
