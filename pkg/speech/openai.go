package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teslashibe/go-wayfinder/internal/httpc"
)

const (
	openAISpeechURL = "https://api.openai.com/v1/audio/speech"
	providerOpenAI  = "openai"
)

// players are tried in order when no player is configured. Each reads MP3
// from stdin.
var players = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"},
	{"mpg123", "-q", "-"},
	{"mpv", "--no-video", "--really-quiet", "-"},
}

// OpenAI synthesizes speech with the OpenAI speech API and plays it locally.
type OpenAI struct {
	apiKey  string
	baseURL string
	voice   string
	model   string
	player  []string
	client  *http.Client
	run     Runner
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI speaker. It needs an API key and a player.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAISpeechURL
	}

	player, err := resolvePlayer(cfg.Player)
	if err != nil {
		return nil, err
	}

	return &OpenAI{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		voice:   cfg.Voice,
		model:   cfg.Model,
		player:  player,
		client:  httpc.NewClient(cfg.Timeout),
		run:     cfg.Runner,
		logger:  cfg.Logger.With("component", "speech.openai"),
	}, nil
}

// Speak synthesizes text and blocks until the player exits.
func (o *OpenAI) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	audio, err := o.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := o.run(ctx, audio, o.player[0], o.player[1:]...); err != nil {
		return fmt.Errorf("speech: play: %w", err)
	}
	return nil
}

// Synthesize returns MP3 audio for text.
func (o *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"model": o.model,
		"voice": o.voice,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read response: %w", err)
	}
	o.logger.Debug("synthesized audio", "chars", len(text), "bytes", len(audio), "voice", o.voice)
	return audio, nil
}

// Close releases idle connections.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

func resolvePlayer(configured string) ([]string, error) {
	if configured != "" {
		return strings.Fields(configured), nil
	}
	for _, p := range players {
		if path, err := lookFirst(p[:1]); err == nil {
			return append([]string{path}, p[1:]...), nil
		}
	}
	return nil, ErrNoPlayer
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message, Provider: providerOpenAI}
}
