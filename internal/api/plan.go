package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/auditops/planner/internal/events"
	"github.com/auditops/planner/internal/pipeline"
	"github.com/auditops/planner/internal/store"
)

type PlanHandler struct {
	planner *pipeline.Planner
	store   store.Store
	events  events.Client
}

func NewPlanHandler(p *pipeline.Planner, s store.Store, e events.Client) *PlanHandler {
	return &PlanHandler{planner: p, store: s, events: e}
}

// Run executes the full optimizer pipeline: merge, score, classify,
// allocate, select, aggregate. Configuration and data anomalies come back as
// warnings beside the result, never as an HTTP error.
func (h *PlanHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.BaseRows) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "base_rows required"})
		return
	}
	if req.GlobalMandays < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "global_mandays must be >= 0"})
		return
	}

	res, err := h.planner.Run(req)
	if err != nil {
		if h.events != nil {
			_ = h.events.Publish(events.SubjectRunFailed("unknown"), events.RunFailedEvent{
				Error:     err.Error(),
				Timestamp: time.Now().UTC(),
			})
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectRunCompleted(res.RunID.String()), events.RunCompletedEvent{
			RunID:            res.RunID.String(),
			TierPolicy:       res.TierPolicy,
			EntityCount:      res.Report.TotalEntities,
			SelectedCount:    res.Report.SelectedCount,
			MandaysAllocated: res.Report.MandaysAllocated,
			MandaysUsed:      res.Report.MandaysUsed,
			UtilizationPct:   res.Report.OverallUtilization,
			RiskBreakdown:    res.Report.SelectedBreakdown,
			WarningCount:     len(res.Warnings),
			Timestamp:        time.Now().UTC(),
		})
	}

	if h.store != nil {
		run := &store.Run{
			ID:               res.RunID,
			TierPolicy:       res.TierPolicy,
			GlobalMandays:    req.GlobalMandays,
			EntityCount:      res.Report.TotalEntities,
			SelectedCount:    res.Report.SelectedCount,
			MandaysAllocated: res.Report.MandaysAllocated,
			MandaysUsed:      res.Report.MandaysUsed,
			UtilizationPct:   res.Report.OverallUtilization,
			Warnings:         res.Warnings,
			Summary:          res.Report,
		}
		// The computed result is still good without history; best-effort.
		_ = h.store.CreateRun(r.Context(), run)
	}

	writeJSON(w, http.StatusOK, res)
}

// Score runs the scoring half only, returning ratings, tiers, and the
// universe-wide risk breakdown without consuming any budget.
func (h *PlanHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.BaseRows) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "base_rows required"})
		return
	}

	res, err := h.planner.Score(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectRunScored(res.RunID.String()), events.RunScoredEvent{
			RunID:         res.RunID.String(),
			EntityCount:   res.Report.TotalEntities,
			RiskBreakdown: res.Report.UniverseBreakdown,
			Timestamp:     time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
