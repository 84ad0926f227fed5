// Package speech speaks narration text aloud.
//
// Two engines are provided: Command drives a local synthesizer binary
// (espeak-ng, espeak or macOS say), and OpenAI synthesizes MP3 through the
// OpenAI speech API and pipes it to a local player. Speak blocks until
// playback finishes.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// Speaker speaks text and returns when playback is complete.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when a cloud engine has no credential.
	ErrNoAPIKey = errors.New("speech: API key required")

	// ErrNoSynthesizer is returned when no local synthesizer binary exists.
	ErrNoSynthesizer = errors.New("speech: no synthesizer found")

	// ErrNoPlayer is returned when no audio player binary exists.
	ErrNoPlayer = errors.New("speech: no audio player found")
)

// APIError is a non-success response from a speech API.
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("speech [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Runner executes a program with optional stdin, waiting for it to exit.
// It exists so tests can observe commands without running them.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) error
