// Package ingest runs the upload pipeline: validation, artifact
// write, format-specific preprocessing and finally the metadata
// insert. The metadata row is written last so that a row never refers
// to artifacts that do not exist; every failure after the first disk
// write unwinds whatever was already written.
package ingest
