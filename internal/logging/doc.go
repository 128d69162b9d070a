// Package logging provides leveled logging for the media share server.
//
// The level is read once from the environment (DEBUG or LOG_LEVEL) and
// defaults to info.
package logging
