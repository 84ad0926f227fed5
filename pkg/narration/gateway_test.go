package narration

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-wayfinder/internal/log"
	"github.com/teslashibe/go-wayfinder/pkg/perception"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

var person = perception.Observation{
	Label:     "person",
	Distance:  0.81,
	Direction: perception.DirectionLeft,
	Risk:      perception.RiskCaution,
}

var pole = perception.Observation{
	Label:     "pole",
	Distance:  0.4,
	Direction: perception.DirectionCenter,
	Risk:      perception.RiskDanger,
}

func newTestGateway(gen Generator, opts ...Option) *Gateway {
	return NewWithGenerator(gen, append([]Option{WithLogger(log.Discard())}, opts...)...)
}

func TestNarrate(t *testing.T) {
	gen := NewMock("  Caution: person on your left.  ")
	g := newTestGateway(gen)

	got := g.Narrate(context.Background(), []perception.Observation{person})
	if got != "Caution: person on your left." {
		t.Errorf("Narrate = %q", got)
	}
	if gen.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", gen.Calls())
	}
	if !strings.Contains(gen.Prompts()[0], "- person at 0.81m, risk: caution, direction: left") {
		t.Errorf("prompt missing observation line:\n%s", gen.Prompts()[0])
	}
}

func TestNarrate_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
		obs  []perception.Observation
		want string
	}{
		{"service error", &Mock{Err: errors.New("connection refused")}, []perception.Observation{person}, FallbackNarration},
		{"api error", &Mock{Err: &APIError{StatusCode: 500, Provider: "gemini"}}, []perception.Observation{person}, FallbackNarration},
		{"empty text", NewMock("   "), []perception.Observation{person}, FallbackNarration},
		{"not configured", nil, []perception.Observation{person}, NotConfigured},
		{"nothing detected", NewMock("unused"), nil, NothingDetected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := newTestGateway(tc.gen).Narrate(context.Background(), tc.obs); got != tc.want {
				t.Errorf("Narrate = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNarrate_Timeout(t *testing.T) {
	gen := &Mock{Response: "too late", Delay: time.Second}
	g := newTestGateway(gen, WithTimeout(20*time.Millisecond))

	start := time.Now()
	got := g.Narrate(context.Background(), []perception.Observation{person})
	if got != FallbackNarration {
		t.Errorf("Narrate = %q, want fallback", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestNarrate_SeverityOrder(t *testing.T) {
	tests := []struct {
		name      string
		ordered   bool
		wantFirst string
	}{
		{"prompt order by default", false, "- person"},
		{"danger first when enabled", true, "- pole"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := NewMock("ok")
			g := newTestGateway(gen, WithSeverityOrder(tc.ordered))
			g.Narrate(context.Background(), []perception.Observation{person, pole})

			prompt := gen.Prompts()[0]
			first := prompt[strings.Index(prompt, "Detected objects:\n")+len("Detected objects:\n"):]
			if !strings.HasPrefix(first, tc.wantFirst) {
				t.Errorf("first line = %q, want prefix %q", first[:min(len(first), 20)], tc.wantFirst)
			}
		})
	}
}

func TestNarrate_HTTPFailure(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	g := New(WithAPIKey("k"), WithBaseURL(srv.URL), WithLogger(log.Discard()))

	if got := g.Narrate(context.Background(), []perception.Observation{person}); got != FallbackNarration {
		t.Errorf("Narrate = %q, want fallback", got)
	}
}

func TestNarrate_HTTPUnreachable(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	g := New(WithAPIKey("k"), WithBaseURL(url), WithLogger(log.Discard()))
	if got := g.Narrate(context.Background(), []perception.Observation{person}); got != FallbackNarration {
		t.Errorf("Narrate = %q, want fallback", got)
	}
}

func TestNarrate_HTTPSuccess(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeCandidate(w, "Person on your left, about a meter away.")
	})
	g := New(WithAPIKey("k"), WithBaseURL(srv.URL), WithLogger(log.Discard()))

	if !g.Configured() {
		t.Fatal("gateway with key should be configured")
	}
	got := g.Narrate(context.Background(), []perception.Observation{person})
	if got != "Person on your left, about a meter away." {
		t.Errorf("Narrate = %q", got)
	}
}

func TestNew_WithoutKey(t *testing.T) {
	g := New(WithLogger(log.Discard()))
	if g.Configured() {
		t.Error("gateway without key should not be configured")
	}
	if got := g.Answer(context.Background(), nil, "Is there a door?"); got != NotConfigured {
		t.Errorf("Answer = %q, want NotConfigured", got)
	}
}

func TestAnswer(t *testing.T) {
	gen := NewMock("No, a door is not visible.")
	g := newTestGateway(gen)

	got := g.Answer(context.Background(), []perception.Observation{person}, "Is there a door?")
	if got != "No, a door is not visible." {
		t.Errorf("Answer = %q", got)
	}
	prompt := gen.Prompts()[0]
	for _, want := range []string{"Question: Is there a door?", "not visible", "- person at 0.81m"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAnswer_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		gen      Generator
		question string
		want     string
	}{
		{"blank question", NewMock("unused"), "  ", NoQuestion},
		{"service error", &Mock{Err: errors.New("boom")}, "What is ahead?", FallbackAnswer},
		{"not configured", nil, "What is ahead?", NotConfigured},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := newTestGateway(tc.gen).Answer(context.Background(), nil, tc.question); got != tc.want {
				t.Errorf("Answer = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAnswer_NoObservationsStillAsks(t *testing.T) {
	gen := NewMock("Nothing is visible.")
	newTestGateway(gen).Answer(context.Background(), nil, "Where is the chair?")

	if gen.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", gen.Calls())
	}
	if !strings.Contains(gen.Prompts()[0], "(none)") {
		t.Errorf("prompt should mark an empty list:\n%s", gen.Prompts()[0])
	}
}

func segments(dirs ...speaker.Direction) []speaker.Segment {
	out := make([]speaker.Segment, len(dirs))
	for i, d := range dirs {
		out[i] = speaker.Segment{ID: i, Direction: d, Duration: 1.5}
	}
	return out
}

func TestLabelSpeakers(t *testing.T) {
	gen := NewMock(`Here you go:
[{"label": "Man on your left"}, {"label": "Teacher at the front"}]
Hope this helps.`)
	g := newTestGateway(gen)
	in := segments(speaker.DirectionLeft, speaker.DirectionFront)

	out := g.LabelSpeakers(context.Background(), in)

	if out[0].SpatialLabel != "Man on your left" || out[1].SpatialLabel != "Teacher at the front" {
		t.Errorf("labels = %q, %q", out[0].SpatialLabel, out[1].SpatialLabel)
	}
	if in[0].SpatialLabel != "" {
		t.Error("input segments were modified")
	}
	if !strings.Contains(gen.Prompts()[0], "Speaker 1: direction=left, duration=1.5s") {
		t.Errorf("prompt missing speaker line:\n%s", gen.Prompts()[0])
	}
}

func TestLabelSpeakers_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
		want []string
	}{
		{"service error", &Mock{Err: errors.New("boom")}, []string{"", ""}},
		{"no json", NewMock("Two people are talking."), []string{"", ""}},
		{"fewer labels", NewMock(`[{"label":"Woman behind you"}]`), []string{"Woman behind you", ""}},
		{"more labels", NewMock(`[{"label":"A"},{"label":"B"},{"label":"C"}]`), []string{"A", "B"}},
		{"missing label field", NewMock(`[{"name":"x"},{"label":"B"}]`), []string{"Speaker 1", "B"}},
		{"not configured", nil, []string{"", ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := newTestGateway(tc.gen).LabelSpeakers(context.Background(),
				segments(speaker.DirectionBack, speaker.DirectionFront))
			if len(out) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(out), len(tc.want))
			}
			for i, want := range tc.want {
				if out[i].SpatialLabel != want {
					t.Errorf("out[%d].SpatialLabel = %q, want %q", i, out[i].SpatialLabel, want)
				}
			}
		})
	}
}

func TestLabelSpeakers_UsesLabelTimeout(t *testing.T) {
	gen := &Mock{Response: `[{"label":"Man on your left"}]`, Delay: 50 * time.Millisecond}
	g := newTestGateway(gen, WithTimeout(10*time.Millisecond), WithLabelTimeout(time.Second))

	out := g.LabelSpeakers(context.Background(), segments(speaker.DirectionLeft))
	if out[0].SpatialLabel != "Man on your left" {
		t.Errorf("label = %q; labeling should use the longer timeout", out[0].SpatialLabel)
	}
}

func TestLabelSpeakers_Empty(t *testing.T) {
	gen := NewMock("[]")
	if out := newTestGateway(gen).LabelSpeakers(context.Background(), nil); len(out) != 0 {
		t.Errorf("out = %v", out)
	}
	if gen.Calls() != 0 {
		t.Error("no call expected for empty input")
	}
}
