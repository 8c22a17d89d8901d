// Package api is the HTTP trigger surface for the daily batch run. An
// external scheduler (uptime monitor, cron webhook) hits /run inside the
// morning window; the endpoint decides whether today's run is due and starts
// it in the background. The run lock stays the real mutual exclusion — the
// schedule guards here only avoid pointless starts.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/finanzashoy/finvid/internal/pipeline"
)

type Handler struct {
	timezone         string
	runHour          int
	runWindowMinutes int
	allowForce       bool
	statePath        string

	// trigger launches a pipeline run in the background and reports whether
	// it actually started. False means a run started by this process is
	// still active.
	trigger func(startedBy string) bool

	// status reports the in-process run state for /status.
	status func() pipeline.Status

	// now is swapped in tests to pin the schedule window.
	now func() time.Time
}

type HandlerConfig struct {
	Timezone         string
	RunHour          int
	RunWindowMinutes int
	AllowForce       bool
	StatePath        string
}

func NewHandler(cfg HandlerConfig, trigger func(startedBy string) bool, status func() pipeline.Status) *Handler {
	h := &Handler{
		timezone:         cfg.Timezone,
		runHour:          cfg.RunHour,
		runWindowMinutes: cfg.RunWindowMinutes,
		allowForce:       cfg.AllowForce,
		statePath:        cfg.StatePath,
		trigger:          trigger,
		status:           status,
	}
	h.now = h.localNow
	return h
}

func (h *Handler) localNow() time.Time {
	loc, err := time.LoadLocation(h.timezone)
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// Status handles GET /status — last-run summary plus schedule settings, no
// secrets.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":                 true,
		"tz":                 h.timezone,
		"run_hour":           h.runHour,
		"run_window_minutes": h.runWindowMinutes,
		"current_status":     h.status(),
		"state":              pipeline.LoadState(h.statePath),
	})
}

// Run handles GET /run — the scheduler's entry point. With force=1 (when
// allowed) the schedule guards are skipped; otherwise the run starts only
// inside the weekday morning window and only once per day.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	if r.URL.Query().Get("force") == "1" && h.allowForce {
		started := h.trigger("force")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"forced":  true,
			"started": started,
			"now":     now.Format(time.RFC3339),
		})
		return
	}

	state := pipeline.LoadState(h.statePath)
	if reason, ok := h.shouldRun(now, state); !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":                true,
			"started":           false,
			"reason":            reason,
			"now":               now.Format(time.RFC3339),
			"weekday":           now.Weekday().String(),
			"hour":              now.Hour(),
			"minute":            now.Minute(),
			"last_success_date": state.LastSuccessDate,
		})
		return
	}

	started := h.trigger("schedule")
	reason := "started"
	if !started {
		reason = "already_running_in_process"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"started": started,
		"reason":  reason,
		"now":     now.Format(time.RFC3339),
	})
}

// shouldRun decides whether the scheduled run is due right now.
func (h *Handler) shouldRun(now time.Time, state pipeline.State) (string, bool) {
	if !h.withinWindow(now) {
		return "outside_schedule", false
	}
	if state.LastSuccessDate == now.Format("2006-01-02") {
		return "already_ran_today", false
	}
	return "ok_to_run", true
}

// withinWindow reports whether now falls in the weekday run window
// (RUN_HOUR:00 through RUN_HOUR:(window-1)). The window absorbs scheduler
// jitter — an uptime monitor pinging every few minutes still lands inside.
func (h *Handler) withinWindow(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if now.Hour() != h.runHour {
		return false
	}
	window := h.runWindowMinutes
	if window < 1 {
		window = 1
	}
	return now.Minute() < window
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
