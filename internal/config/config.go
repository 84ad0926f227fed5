// Package config loads wayfinder configuration from YAML, .env and the
// environment. Later sources win: defaults, then file, then environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full wayfinder configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Narration NarrationConfig `yaml:"narration"`
	Alert     AlertConfig     `yaml:"alert"`
	Speech    SpeechConfig    `yaml:"speech"`
	Server    ServerConfig    `yaml:"server"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CameraConfig selects the capture device for the continuous loop.
type CameraConfig struct {
	Device  int `yaml:"device"`
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Quality int `yaml:"quality"`

	// FrameInterval paces the loop; zero reads as fast as the device allows.
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// DetectorConfig points at the object-detection model.
type DetectorConfig struct {
	ModelPath  string  `yaml:"model_path"`
	Confidence float32 `yaml:"confidence"`
	NMS        float32 `yaml:"nms"`
}

// NarrationConfig configures the remote language-generation service.
type NarrationConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	LabelTimeout  time.Duration `yaml:"label_timeout"`
	SeverityOrder bool          `yaml:"severity_order"`
}

// AlertConfig configures the narration throttle.
type AlertConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// SpeechConfig selects the speech synthesis engine.
type SpeechConfig struct {
	// Engine is "command" (local espeak-ng / say) or "openai".
	Engine    string `yaml:"engine"`
	Command   string `yaml:"command"`
	Rate      int    `yaml:"rate"`
	OpenAIKey string `yaml:"openai_api_key"`
	Voice     string `yaml:"voice"`
	Player    string `yaml:"player"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Throttle    bool   `yaml:"throttle"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Camera: CameraConfig{
			Device:        0,
			Width:         640,
			Height:        480,
			Quality:       80,
			FrameInterval: 200 * time.Millisecond,
		},
		Detector: DetectorConfig{
			ModelPath:  "models/yolov8n.onnx",
			Confidence: 0.5,
			NMS:        0.45,
		},
		Narration: NarrationConfig{
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			Model:        "gemini-2.5-flash",
			Timeout:      10 * time.Second,
			LabelTimeout: 30 * time.Second,
		},
		Alert: AlertConfig{Interval: 5 * time.Second},
		Speech: SpeechConfig{
			Engine: "command",
			Rate:   150,
			Voice:  "shimmer",
		},
		Server: ServerConfig{
			Addr:        ":8000",
			MaxUploadMB: 25,
		},
	}
}

// Load reads .env (if present), the YAML file at path (if non-empty), then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates it.
// Environment overrides are not applied.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if key := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		c.Narration.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Speech.OpenAIKey = key
	}
	if v := os.Getenv("WAYFINDER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WAYFINDER_MODEL_PATH"); v != "" {
		c.Detector.ModelPath = v
	}
	if v := os.Getenv("WAYFINDER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("WAYFINDER_SPEECH_ENGINE"); v != "" {
		c.Speech.Engine = v
	}
	if v := os.Getenv("WAYFINDER_CAMERA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Camera.Device = n
		}
	}
	if v := os.Getenv("WAYFINDER_SPEAK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Alert.Interval = d
		}
	}
}

// Validate checks that c contains a coherent set of values.
// It returns a joined error listing all failures found.
func (c *Config) Validate() error {
	var errs []error
	if c.Alert.Interval < 0 {
		errs = append(errs, fmt.Errorf("alert.interval must not be negative, got %v", c.Alert.Interval))
	}
	if c.Narration.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("narration.timeout must be positive, got %v", c.Narration.Timeout))
	}
	if c.Narration.LabelTimeout <= 0 {
		errs = append(errs, fmt.Errorf("narration.label_timeout must be positive, got %v", c.Narration.LabelTimeout))
	}
	if c.Detector.Confidence < 0 || c.Detector.Confidence > 1 {
		errs = append(errs, fmt.Errorf("detector.confidence must be in [0,1], got %v", c.Detector.Confidence))
	}
	if c.Camera.FrameInterval < 0 {
		errs = append(errs, fmt.Errorf("camera.frame_interval must not be negative, got %v", c.Camera.FrameInterval))
	}
	if c.Camera.Quality < 1 || c.Camera.Quality > 100 {
		errs = append(errs, fmt.Errorf("camera.quality must be between 1 and 100, got %d", c.Camera.Quality))
	}
	switch c.Speech.Engine {
	case "command", "openai":
	default:
		errs = append(errs, fmt.Errorf("speech.engine %q is invalid; valid values: command, openai", c.Speech.Engine))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}
	return errors.Join(errs...)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
