package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// synthesizers are tried in order when no command is configured.
var synthesizers = []string{"espeak-ng", "espeak", "say"}

// Command speaks through a local synthesizer binary.
type Command struct {
	name   string
	rate   int
	run    Runner
	logger *slog.Logger
}

// NewCommand returns a Command using the configured binary, or the first of
// espeak-ng, espeak and say found on PATH.
func NewCommand(opts ...Option) (*Command, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	name := cfg.Command
	if name == "" {
		found, err := lookFirst(synthesizers)
		if err != nil {
			return nil, ErrNoSynthesizer
		}
		name = found
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}

	return &Command{
		name:   name,
		rate:   cfg.Rate,
		run:    cfg.Runner,
		logger: cfg.Logger.With("component", "speech.command"),
	}, nil
}

// Speak runs the synthesizer and waits for it to finish.
func (c *Command) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.logger.Debug("speaking", "cmd", c.name, "chars", len(text))
	if err := c.run(ctx, []byte(text), c.name, c.args()...); err != nil {
		return fmt.Errorf("speech: %s: %w", filepath.Base(c.name), err)
	}
	return nil
}

// args builds the command line. Text goes on stdin so it is never parsed
// as flags. say takes -r, the espeak family -s; both are words per minute.
func (c *Command) args() []string {
	rate := strconv.Itoa(c.rate)
	if filepath.Base(c.name) == "say" {
		return []string{"-r", rate, "-f", "-"}
	}
	return []string{"-s", rate, "--stdin"}
}

func lookFirst(names []string) (string, error) {
	for _, n := range names {
		if path, err := exec.LookPath(n); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
