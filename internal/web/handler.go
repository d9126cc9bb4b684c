package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/models"
	"github.com/t3track/t3agent/internal/reporter"
	"github.com/t3track/t3agent/internal/tracking"
)

const (
	defaultErrorLimit = 50
	maxErrorLimit     = 1000
	keepAliveInterval = 15 * time.Second
)

// Tracker is the part of the controller the API drives.
type Tracker interface {
	Start() bool
	Stop() *tracking.UsageReport
	Status() tracking.Status
	Snapshot() tracking.Usage
}

// ErrorStore reads and clears the diagnostic error log.
type ErrorStore interface {
	RecentErrors(limit int) ([]models.ErrorLog, error)
	ErrorsSince(since time.Time) ([]models.ErrorLog, error)
	CountBySource() ([]models.ErrorCount, error)
	Clear() error
}

type Handler struct {
	tracker  Tracker
	errors   ErrorStore
	bus      *tracking.Bus
	reporter *reporter.Reporter
	logger   logging.Logger
	started  time.Time

	origins atomic.Pointer[map[string]bool]
}

func NewHandler(tracker Tracker, store ErrorStore, bus *tracking.Bus, rep *reporter.Reporter, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	if rep == nil {
		rep = reporter.New(nil)
	}
	h := &Handler{
		tracker:  tracker,
		errors:   store,
		bus:      bus,
		reporter: rep,
		logger:   logger,
		started:  time.Now(),
	}
	h.SetAllowedOrigins(nil)
	return h
}

// SetAllowedOrigins replaces the browser origins that may call the API.
// Requests without an Origin header (the CLI, native shells) are always
// served; "*" admits every origin.
func (h *Handler) SetAllowedOrigins(origins []string) {
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = true
		}
	}
	h.origins.Store(&set)
}

func (h *Handler) originAllowed(origin string) bool {
	set := *h.origins.Load()
	return set["*"] || set[origin]
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tracking/start", h.handleStart)
	mux.HandleFunc("/api/tracking/stop", h.handleStop)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/usage", h.handleUsage)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/events", h.handleEvents)

	mux.HandleFunc("/health", h.handleHealth)
}

// StartResponse is returned by POST /api/tracking/start.
type StartResponse struct {
	Started bool            `json:"started"`
	Status  tracking.Status `json:"status"`
}

// StopResponse is returned by POST /api/tracking/stop. Report is nil when
// tracking was not active.
type StopResponse struct {
	Stopped bool              `json:"stopped"`
	Report  *reporter.Summary `json:"report,omitempty"`
}

// ErrorsResponse is returned by GET /api/errors.
type ErrorsResponse struct {
	Errors []models.ErrorLog   `json:"errors"`
	Counts []models.ErrorCount `json:"counts"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	started := h.tracker.Start()
	respondJSON(w, &StartResponse{Started: started, Status: h.tracker.Status()})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	resp := &StopResponse{}
	if report := h.tracker.Stop(); report != nil {
		resp.Stopped = true
		resp.Report = h.reporter.SummarizeReport(report)
	}
	respondJSON(w, resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, h.tracker.Status())
}

// handleUsage reports the in-progress session without ending it.
func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	st := h.tracker.Status()
	summary := h.reporter.Summarize(h.tracker.Snapshot())
	summary.SessionID = st.SessionID
	if st.Started != nil {
		summary.Started = *st.Started
	}
	respondJSON(w, summary)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	if h.errors == nil {
		http.Error(w, "error log unavailable", http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodDelete {
		if err := h.errors.Clear(); err != nil {
			http.Error(w, fmt.Sprintf("Failed to clear errors: %v", err), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var logs []models.ErrorLog
	if since := query.Get("since"); since != "" {
		// since is RFC 3339; results are oldest first
		at, perr := time.Parse(time.RFC3339, since)
		if perr != nil {
			http.Error(w, "since must be an RFC 3339 timestamp", http.StatusBadRequest)
			return
		}
		logs, err = h.errors.ErrorsSince(at)
		if len(logs) > limit {
			logs = logs[len(logs)-limit:]
		}
	} else {
		logs, err = h.errors.RecentErrors(limit)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}
	counts, err := h.errors.CountBySource()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to count errors: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, &ErrorsResponse{Errors: logs, Counts: counts})
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultErrorLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid limit %q", s)
	}
	return min(n, maxErrorLimit), nil
}

// handleEvents streams bus events as Server-Sent Events until the client
// goes away. ?kind=usage,screenshot narrows the stream.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	kinds, err := parseKinds(r.URL.Query().Get("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rc := http.NewResponseController(w)
	// the server's write timeout would cut long-lived streams
	_ = rc.SetWriteDeadline(time.Time{})

	sub := h.bus.Subscribe(32, kinds...)
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream not flushable", "error", err)
		return
	}

	h.logger.Debug("event stream opened", "remote", r.RemoteAddr)
	defer h.logger.Debug("event stream closed", "remote", r.RemoteAddr)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := sonic.Marshal(ev)
			if err != nil {
				h.logger.Error("failed to encode event", "kind", ev.Kind, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func parseKinds(s string) ([]tracking.EventKind, error) {
	if s == "" {
		return nil, nil
	}
	var kinds []tracking.EventKind
	for _, part := range strings.Split(s, ",") {
		switch k := tracking.EventKind(strings.TrimSpace(part)); k {
		case tracking.EventUsage, tracking.EventScreenshot, tracking.EventState:
			kinds = append(kinds, k)
		default:
			return nil, errors.Errorf("unknown event kind %q", part)
		}
	}
	return kinds, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// allow rejects foreign browser origins, answers CORS preflights and
// rejects other methods. It reports whether the handler should continue.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.originAllowed(origin) {
		h.logger.Warn("rejected control API request", "origin", origin, "path", r.URL.Path)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return false
	}

	if r.Method == http.MethodOptions {
		setCORS(w, origin, methods)
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	for _, m := range methods {
		if r.Method == m {
			setCORS(w, origin, methods)
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func setCORS(w http.ResponseWriter, origin string, methods []string) {
	if origin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Add("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(append(methods, http.MethodOptions), ", "))
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	body, err := sonic.Marshal(data)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(body, '\n'))
}
