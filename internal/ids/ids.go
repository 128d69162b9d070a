// Package ids generates file identifiers and access tokens.
package ids

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// FileIDLength is the length of generated file identifiers.
	FileIDLength = 8
	// TokenLength is the length of file access tokens. The edit
	// boundary rejects any token of a different length outright.
	TokenLength = 16
)

// NewFileID returns a new random file identifier.
func NewFileID() (string, error) {
	return random(FileIDLength)
}

// NewToken returns a new random access token.
func NewToken() (string, error) {
	return random(TokenLength)
}

// random builds a string of n alphanumeric characters using rejection
// sampling so every character is uniformly distributed.
func random(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) < 256-(256%len(alphabet)) {
				out = append(out, alphabet[int(b)%len(alphabet)])
				if len(out) == n {
					break
				}
			}
		}
	}
	return string(out), nil
}
