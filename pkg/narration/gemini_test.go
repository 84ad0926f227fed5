package narration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-wayfinder/internal/log"
)

func geminiServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"parts": []any{map[string]any{"text": text}}},
				"finishReason": "STOP",
			},
		},
	})
}

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var body geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Contents) == 1 && len(body.Contents[0].Parts) == 1 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}
		writeCandidate(w, "Person on your left.")
	})

	g, err := NewGemini(WithAPIKey("secret"), WithBaseURL(srv.URL+"/"), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	defer g.Close()

	text, err := g.Generate(context.Background(), "describe")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Person on your left." {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("key = %q", gotKey)
	}
	if gotPrompt != "describe" {
		t.Errorf("prompt = %q", gotPrompt)
	}
}

func TestGemini_NoAPIKey(t *testing.T) {
	_, err := NewGemini(WithLogger(log.Discard()))
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestGemini_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("err = %v, want *APIError", err)
				}
				if !apiErr.IsRateLimited() || apiErr.Message != "quota exceeded" {
					t.Errorf("apiErr = %+v", apiErr)
				}
			},
		},
		{
			name: "server error raw body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || !apiErr.IsServerError() {
					t.Errorf("err = %v, want server APIError", err)
				}
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			check: func(t *testing.T, err error) {
				var pe *ProviderError
				if !errors.As(err, &pe) {
					t.Errorf("err = %v, want *ProviderError", err)
				}
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"candidates":[]}`))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyResponse) {
					t.Errorf("err = %v, want ErrEmptyResponse", err)
				}
			},
		},
		{
			name: "error in ok body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Errorf("err = %v, want *APIError", err)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := geminiServer(t, tc.handler)
			g, err := NewGemini(WithAPIKey("k"), WithBaseURL(srv.URL), WithLogger(log.Discard()))
			if err != nil {
				t.Fatalf("NewGemini: %v", err)
			}
			_, err = g.Generate(context.Background(), "p")
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)
		})
	}
}
