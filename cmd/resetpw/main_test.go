package main

import (
	"context"
	"path/filepath"
	"testing"

	"media-share/internal/database"
)

func TestSanitizeCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain command", "reset", "reset"},
		{"with hyphen", "some-command", "some-command"},
		{"with underscore", "some_command", "some_command"},
		{"shell metacharacters", "reset; rm -rf /", "reset__rm_-rf__"},
		{"newline injection", "reset\nstatus", "reset_status"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeCommand(tt.input); got != tt.want {
				t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateNewPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		confirm  string
		wantOK   bool
	}{
		{"valid password", "validpass123", "validpass123", true},
		{"minimum length", "123456", "123456", true},
		{"too short", "12345", "12345", false},
		{"empty", "", "", false},
		{"mismatched", "password123", "password456", false},
		{"bcrypt ceiling", string(make([]byte, 73)), string(make([]byte, 73)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateNewPassword([]byte(tt.password), []byte(tt.confirm))
			if ok := msg == ""; ok != tt.wantOK {
				t.Errorf("validateNewPassword = %q, want ok=%v", msg, tt.wantOK)
			}
		})
	}
}

func TestResetPasswordRequiresExistingUser(t *testing.T) {
	t.Parallel()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if resetPassword(context.Background(), db) {
		t.Error("resetPassword succeeded with no configured user")
	}
}
