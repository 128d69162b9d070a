// Package editor applies batch edit actions to selections of stored
// files. A selection comes either from a logged-in session, which may
// name any set of ids, or from a single-file access token, which only
// ever resolves to the one file it was minted for.
package editor
