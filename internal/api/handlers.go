package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
	"github.com/dsemenov/wakeup-alarm/internal/scheduler"
	"github.com/dsemenov/wakeup-alarm/internal/websocket"
)

// upgrader turns status requests into websocket event streams.
//
//nolint:gochecknoglobals // Shared, stateless upgrader configuration.
var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon binds to loopback; cross-origin UIs are expected.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler exposes the alarm control surface over HTTP.
type Handler struct {
	// sched drives all lifecycle transitions.
	sched *scheduler.Scheduler
	// hub streams events to websocket clients.
	hub *websocket.Hub
	// gatherer serves the Prometheus metrics endpoint.
	gatherer prometheus.Gatherer
}

// NewHandler wires the scheduler, event hub and metrics registry into an
// HTTP handler set.
func NewHandler(sched *scheduler.Scheduler, hub *websocket.Hub, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		sched:    sched,
		hub:      hub,
		gatherer: gatherer,
	}
}

// armRequest is the POST /api/alarm payload.
type armRequest struct {
	// Time is the alarm time of day, "HH:MM" in 24-hour local time.
	Time string `json:"time"`
}

// armResponse confirms a set schedule.
type armResponse struct {
	// TargetFireTime is the computed absolute deadline.
	TargetFireTime time.Time `json:"target_fire_time"`
	// Status is the snapshot after arming.
	Status domain.Status `json:"status"`
}

// answerRequest is the POST /api/answer payload.
type answerRequest struct {
	// Answer is the raw user input; parsing happens in the gate.
	Answer string `json:"answer"`
}

// answerResponse carries the gate's verdict.
type answerResponse struct {
	// Feedback is the verdict name: correct, wrong, malformed, complete, rejected.
	Feedback string `json:"feedback"`
	// Status is the snapshot after the submission.
	Status domain.Status `json:"status"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	// Error is a human-readable message.
	Error string `json:"error"`
}

// handleArm sets or replaces the alarm schedule.
func (h *Handler) handleArm(w http.ResponseWriter, r *http.Request) {
	var req armRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	parsed, err := time.Parse("15:04", req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be HH:MM")

		return
	}

	if _, err = h.sched.Arm(r.Context(), parsed.Hour(), parsed.Minute()); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, scheduler.ErrFiring) {
			status = http.StatusConflict
		}

		writeError(w, status, err.Error())

		return
	}

	snapshot := h.sched.Status()

	writeJSON(w, http.StatusOK, armResponse{
		TargetFireTime: snapshot.TargetFireTime,
		Status:         snapshot,
	})
}

// handleDisarm clears a pending schedule. A firing alarm refuses: solving
// the quota is the only way to silence it.
func (h *Handler) handleDisarm(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Disarm(r.Context()); err != nil {
		writeError(w, http.StatusConflict, err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAnswer submits one challenge answer.
func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	feedback, err := h.sched.Submit(r.Context(), req.Answer)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Feedback: feedback.String(),
		Status:   h.sched.Status(),
	})
}

// handleStatus returns the current snapshot.
func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Status())
}

// handleWebSocket upgrades the connection and attaches it to the event hub.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(r.Context(), "Websocket upgrade failed", "error", err)

		return
	}

	websocket.Serve(h.hub, conn)
}

// handleMetrics serves the Prometheus scrape endpoint.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// writeJSON encodes the payload with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
