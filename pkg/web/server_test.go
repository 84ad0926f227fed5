package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-wayfinder/internal/log"
	"github.com/teslashibe/go-wayfinder/pkg/alert"
	"github.com/teslashibe/go-wayfinder/pkg/audioio"
	"github.com/teslashibe/go-wayfinder/pkg/detection"
	"github.com/teslashibe/go-wayfinder/pkg/hub"
	"github.com/teslashibe/go-wayfinder/pkg/narration"
	"github.com/teslashibe/go-wayfinder/pkg/perception"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

// personFrame is a 640x480 frame with one tall person on the left.
var personFrame = &detection.Result{
	Width:  640,
	Height: 480,
	Objects: []detection.Object{{
		ClassID:    0,
		Label:      "person",
		Confidence: 0.91,
		Box:        image.Rect(100, 0, 200, 400),
	}},
}

type testServer struct {
	srv      *Server
	detector *detection.Mock
	gen      *narration.Mock
	throttle *alert.Throttle
}

func newTestServer(t *testing.T, response string, th *alert.Throttle) *testServer {
	t.Helper()
	det := detection.NewMock(personFrame)
	gen := narration.NewMock(response)
	srv := New(Deps{
		Detector: det,
		Gateway:  narration.NewWithGenerator(gen, narration.WithLogger(log.Discard())),
		Analyzer: speaker.NewAnalyzer(),
		Throttle: th,
		Logger:   log.Discard(),
	})
	return &testServer{srv: srv, detector: det, gen: gen, throttle: th}
}

// upload builds a multipart request carrying data as the "file" field.
func upload(t *testing.T, path string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if data != nil {
		fw, err := mw.CreateFormFile("file", "upload.bin")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, s *Server, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

// burstWAV encodes 0.5s silence, 0.3s of a 6kHz tone and 0.5s silence.
func burstWAV(t *testing.T) []byte {
	t.Helper()
	const rate = audioio.TargetSampleRate
	samples := make([]float64, 0, 20800)
	samples = append(samples, make([]float64, 8000)...)
	for i := range 4800 {
		samples = append(samples, 0.5*math.Sin(2*math.Pi*6000*float64(i)/rate))
	}
	samples = append(samples, make([]float64, 8000)...)

	path := filepath.Join(t.TempDir(), "burst.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := audioio.WriteWAV(f, audioio.Buffer{Channels: [][]float64{samples}, SampleRate: rate}); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	_ = f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "ok", nil)

	resp, body := do(t, ts.srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[map[string]any](t, body)
	if got["status"] != "ok" || got["narration_enabled"] != true {
		t.Errorf("health = %v", got)
	}
	if _, err := uuid.Parse(resp.Header.Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", resp.Header.Get("X-Request-ID"), err)
	}
}

func TestDetect(t *testing.T) {
	ts := newTestServer(t, "Person very close on your left.", nil)

	resp, body := do(t, ts.srv, upload(t, "/detect", []byte("jpeg"), nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[DetectResponse](t, body)
	if len(got.Objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(got.Objects))
	}
	obj := got.Objects[0]
	if obj.Label != "person" || obj.Direction != perception.DirectionLeft || obj.Risk != perception.RiskDanger {
		t.Errorf("object = %+v", obj)
	}
	if obj.Distance != 0.5 {
		t.Errorf("distance = %v, want 0.5", obj.Distance)
	}
	if got.AlertText != "Person very close on your left." || !got.Spoken {
		t.Errorf("alert = %q spoken=%v", got.AlertText, got.Spoken)
	}
	if prompts := ts.gen.Prompts(); len(prompts) != 1 || !strings.Contains(prompts[0], "person at 0.50m") {
		t.Errorf("prompts = %q", prompts)
	}

	_, body = do(t, ts.srv, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	recent := decode[[]hub.Event](t, body)
	if len(recent) != 1 || recent[0].Kind != hub.KindAlert || recent[0].ID == "" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestDetect_NothingFound(t *testing.T) {
	ts := newTestServer(t, "unused", nil)
	ts.detector.Result = &detection.Result{Width: 640, Height: 480}

	_, body := do(t, ts.srv, upload(t, "/detect", []byte("jpeg"), nil))
	got := decode[DetectResponse](t, body)
	if got.Objects == nil || len(got.Objects) != 0 {
		t.Errorf("objects = %v, want empty list", got.Objects)
	}
	if got.AlertText != narration.NothingDetected {
		t.Errorf("alert = %q", got.AlertText)
	}
	if ts.gen.Calls() != 0 {
		t.Errorf("generator called %d times", ts.gen.Calls())
	}
}

func TestDetect_SensorErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{name: "missing file"},
		{name: "detector failure", data: []byte("garbage"), err: errors.New("decode failed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "unused", nil)
			ts.detector.Err = tt.err

			resp, body := do(t, ts.srv, upload(t, "/detect", tt.data, nil))
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			got := decode[map[string]string](t, body)
			if got["error"] == "" {
				t.Errorf("no error message in %s", body)
			}
			if ts.gen.Calls() != 0 {
				t.Errorf("generator called on sensor failure")
			}
		})
	}
}

func TestDetect_Throttled(t *testing.T) {
	th := alert.New(alert.DefaultConfig(), time.Now().Add(-time.Minute))
	ts := newTestServer(t, "Person ahead.", th)

	_, body := do(t, ts.srv, upload(t, "/detect", []byte("jpeg"), nil))
	first := decode[DetectResponse](t, body)
	if !first.Spoken || first.AlertText != "Person ahead." {
		t.Fatalf("first = %+v", first)
	}

	_, body = do(t, ts.srv, upload(t, "/detect", []byte("jpeg"), nil))
	second := decode[DetectResponse](t, body)
	if second.Spoken || second.AlertText != "" {
		t.Errorf("second = %+v, want held back", second)
	}
	if len(second.Objects) != 1 {
		t.Errorf("objects still reported: got %d", len(second.Objects))
	}
	if ts.gen.Calls() != 1 {
		t.Errorf("generator calls = %d, want 1", ts.gen.Calls())
	}
}

func TestThrottleKnob(t *testing.T) {
	th := alert.New(alert.DefaultConfig(), time.Now())
	ts := newTestServer(t, "Person ahead.", th)

	req := httptest.NewRequest(http.MethodPut, "/throttle", strings.NewReader(`{"enabled":false}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := do(t, ts.srv, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if decode[alert.State](t, body).Enabled {
		t.Error("throttle still enabled")
	}

	_, body = do(t, ts.srv, httptest.NewRequest(http.MethodGet, "/throttle", nil))
	if st := decode[alert.State](t, body); st.Enabled || st.Interval != alert.DefaultInterval {
		t.Errorf("state = %+v", st)
	}

	// Disabled throttle narrates every request.
	for range 2 {
		_, body = do(t, ts.srv, upload(t, "/detect", []byte("jpeg"), nil))
		if got := decode[DetectResponse](t, body); !got.Spoken {
			t.Errorf("detect held back while throttle disabled: %+v", got)
		}
	}
}

func TestThrottleKnob_Unavailable(t *testing.T) {
	ts := newTestServer(t, "ok", nil)
	resp, _ := do(t, ts.srv, httptest.NewRequest(http.MethodGet, "/throttle", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAsk(t *testing.T) {
	ts := newTestServer(t, "Yes, a person is on your left.", nil)

	resp, body := do(t, ts.srv, upload(t, "/ask", []byte("jpeg"), map[string]string{"question": "Is anyone here?"}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[AskResponse](t, body)
	if got.Question != "Is anyone here?" || got.Answer != "Yes, a person is on your left." {
		t.Errorf("got %+v", got)
	}
	if prompts := ts.gen.Prompts(); len(prompts) != 1 || !strings.Contains(prompts[0], "Question: Is anyone here?") {
		t.Errorf("prompts = %q", prompts)
	}
}

func TestAsk_NoQuestion(t *testing.T) {
	ts := newTestServer(t, "unused", nil)

	_, body := do(t, ts.srv, upload(t, "/ask", []byte("jpeg"), nil))
	if got := decode[AskResponse](t, body); got.Answer != narration.NoQuestion {
		t.Errorf("answer = %q", got.Answer)
	}
	if ts.gen.Calls() != 0 {
		t.Errorf("generator called for a blank question")
	}
}

func TestAudio(t *testing.T) {
	ts := newTestServer(t, `Sure: [{"label": "Someone ahead of you"}]`, nil)

	resp, body := do(t, ts.srv, upload(t, "/audio", burstWAV(t), nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[speaker.Result](t, body)
	if len(got.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(got.Segments))
	}
	seg := got.Segments[0]
	if seg.Direction != speaker.DirectionFront {
		t.Errorf("direction = %q, want front", seg.Direction)
	}
	if seg.SpatialLabel != "Someone ahead of you" {
		t.Errorf("label = %q", seg.SpatialLabel)
	}
	if math.Abs(got.TotalDuration-1.3) > 1e-9 || got.SampleRate != audioio.TargetSampleRate {
		t.Errorf("total=%v rate=%d", got.TotalDuration, got.SampleRate)
	}
}

func TestAudio_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "missing file"},
		{name: "unsupported bytes", data: []byte("not audio at all")},
		{name: "truncated wav", data: []byte("RIFF\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "unused", nil)

			resp, body := do(t, ts.srv, upload(t, "/audio", tt.data, nil))
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if !bytes.Contains(body, []byte(`"speakers":[]`)) {
				t.Errorf("body = %s, want empty speakers list", body)
			}
			if got := decode[AudioError](t, body); got.Error == "" {
				t.Error("no error message")
			}
		})
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	h := hub.New("test", log.Discard())
	srv := New(Deps{
		Detector: detection.NewMock(personFrame),
		Gateway:  narration.NewWithGenerator(narration.NewMock("ok")),
		Analyzer: speaker.NewAnalyzer(),
		Alerts:   h,
		Logger:   log.Discard(),
	})

	resp, _ := do(t, srv, httptest.NewRequest(http.MethodGet, "/ws/alerts", nil))
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
