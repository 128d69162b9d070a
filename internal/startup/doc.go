// Package startup handles configuration loading, environment
// validation and startup/shutdown logging for the media share server.
package startup
