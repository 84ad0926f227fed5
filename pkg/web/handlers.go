package web

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-wayfinder/pkg/audioio"
	"github.com/teslashibe/go-wayfinder/pkg/hub"
	"github.com/teslashibe/go-wayfinder/pkg/perception"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

// DetectResponse is returned by POST /detect.
type DetectResponse struct {
	Objects   []perception.Observation `json:"objects"`
	AlertText string                   `json:"alert_text"`

	// Spoken is false when the alert throttle held the narration back.
	Spoken bool `json:"spoken"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Objects  []perception.Observation `json:"objects"`
	Question string                   `json:"question"`
	Answer   string                   `json:"answer"`
}

// AudioError is returned by POST /audio when the upload cannot be processed.
type AudioError struct {
	Error    string            `json:"error"`
	Speakers []speaker.Segment `json:"speakers"`
}

// ThrottleRequest is the body of PUT /throttle.
type ThrottleRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	clients := 0
	if s.deps.Alerts != nil {
		clients = s.deps.Alerts.ClientCount()
	}
	return c.JSON(fiber.Map{
		"status":            "ok",
		"narration_enabled": s.deps.Gateway.Configured(),
		"alert_listeners":   clients,
	})
}

func (s *Server) handleDetect(c *fiber.Ctx) error {
	obs, err := s.observe(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	now := time.Now()

	resp := DetectResponse{Objects: obs, Spoken: true}
	th := s.deps.Throttle
	switch {
	case th != nil && !th.Due(now):
		resp.Spoken = false
	default:
		resp.AlertText = s.deps.Gateway.Narrate(ctx, obs)
		if th != nil {
			if th.ShouldSpeak(resp.AlertText, now) {
				th.RecordSpoken(resp.AlertText, now)
			} else {
				th.RecordAttempt(now)
				resp.Spoken = false
			}
		}
	}
	s.deps.Metrics.RecordAlert(ctx, resp.Spoken)

	if resp.AlertText != "" {
		s.publish(hub.Event{
			Kind:      hub.KindAlert,
			ID:        requestID(c),
			Text:      resp.AlertText,
			Spoken:    resp.Spoken,
			Timestamp: now,
			Payload:   perception.Summary(obs),
		})
	}
	return c.JSON(resp)
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	question := c.FormValue("question")
	obs, err := s.observe(c)
	if err != nil {
		return err
	}

	answer := s.deps.Gateway.Answer(c.UserContext(), obs, question)
	s.publish(hub.Event{
		Kind:      hub.KindAnswer,
		ID:        requestID(c),
		Text:      answer,
		Timestamp: time.Now(),
		Payload:   fiber.Map{"question": question},
	})
	return c.JSON(AskResponse{Objects: obs, Question: question, Answer: answer})
}

func (s *Server) handleAudio(c *fiber.Ctx) error {
	data, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(AudioError{Error: err.Error(), Speakers: []speaker.Segment{}})
	}
	buf, err := audioio.Decode(data)
	if err != nil {
		s.logger.Warn("audio decode failed", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(AudioError{Error: err.Error(), Speakers: []speaker.Segment{}})
	}

	ctx := c.UserContext()
	res := s.deps.Analyzer.Analyze(buf)
	for _, seg := range res.Segments {
		s.deps.Metrics.RecordSegment(ctx, string(seg.Direction))
	}
	res.Segments = s.deps.Gateway.LabelSpeakers(ctx, res.Segments)

	s.publish(hub.Event{
		Kind:      hub.KindSpeakers,
		ID:        requestID(c),
		Timestamp: time.Now(),
		Payload:   res.Segments,
	})
	return c.JSON(res)
}

func (s *Server) handleRecentAlerts(c *fiber.Ctx) error {
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()
	return c.JSON(s.recent)
}

func (s *Server) handleGetThrottle(c *fiber.Ctx) error {
	if s.deps.Throttle == nil {
		return fiber.NewError(fiber.StatusNotFound, "throttle not available")
	}
	return c.JSON(s.deps.Throttle.Snapshot())
}

func (s *Server) handleSetThrottle(c *fiber.Ctx) error {
	if s.deps.Throttle == nil {
		return fiber.NewError(fiber.StatusNotFound, "throttle not available")
	}
	var req ThrottleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	s.deps.Throttle.SetEnabled(req.Enabled)
	s.logger.Info("throttle updated", "enabled", req.Enabled)
	return c.JSON(s.deps.Throttle.Snapshot())
}

func (s *Server) handleAlertsWS(conn *websocket.Conn) {
	hub.NewClient(s.deps.Alerts, conn).Run()
}

// observe reads the uploaded image, runs detection and classifies the
// result. Sensor failures become 400s.
func (s *Server) observe(c *fiber.Ctx) ([]perception.Observation, error) {
	data, err := readUpload(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	start := time.Now()
	res, err := s.deps.Detector.Detect(data)
	s.deps.Metrics.RecordDetection(ctx, time.Since(start))
	if err != nil {
		s.deps.Metrics.RecordFrameError(ctx, "detect")
		s.logger.Warn("detection failed", "request_id", requestID(c), "error", err)
		return nil, fiber.NewError(fiber.StatusBadRequest, "unable to process image")
	}

	obs := perception.FromDetections(res)
	if obs == nil {
		obs = []perception.Observation{}
	}
	for _, o := range obs {
		s.deps.Metrics.RecordObservation(ctx, string(o.Risk))
	}
	return obs, nil
}

var errNoFile = errors.New("file is required")

func readUpload(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errNoFile
	}
	return data, nil
}
