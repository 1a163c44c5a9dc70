// Package server provides the HTTP API and web UI for the loan calculator.
package server

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"embed"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/loantools/loancalc/internal/compare"
	"github.com/loantools/loancalc/internal/config"
	"github.com/loantools/loancalc/internal/engine"
	"github.com/loantools/loancalc/internal/store"
	"github.com/loantools/loancalc/pkg/constants"
	"github.com/loantools/loancalc/pkg/output"
)

//go:embed static/*
var staticFiles embed.FS

// userTokenHeader identifies the owner of saved comparisons.
const userTokenHeader = "X-User-Token"

type handler struct {
	logger      *zap.Logger
	engine      *engine.Engine
	store       store.Store
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler serving the web UI, the schedule
// API and the saved-comparison endpoints.
func NewHandler(logger *zap.Logger, comparisons store.Store, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if comparisons == nil {
		comparisons = store.NewMemoryStore()
	}
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodyBytes
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}

	h := &handler{
		logger:      logger,
		engine:      engine.New(logger),
		store:       comparisons,
		maxBodySize: maxBodySize,
		version:     version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/schedule", instrument("/api/schedule", h.handleSchedule))
	mux.HandleFunc("/api/compare", instrument("/api/compare", h.handleCompare))
	mux.HandleFunc("/api/comparisons", instrument("/api/comparisons", h.handleComparisons))
	mux.HandleFunc("/api/scenario/yaml", instrument("/api/scenario/yaml", h.handleScenarioYAML))
	mux.HandleFunc("/api/version", instrument("/api/version", h.handleVersion))
	mux.Handle("/metrics", promhttp.Handler())

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return mux
}

type scheduleResponse struct {
	Summary  map[string]interface{} `json:"summary"`
	Schedule []output.ScheduleRow   `json:"schedule"`
	CSV      string                 `json:"csv"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var scenario config.Scenario
	if !h.decodeBody(w, r, &scenario) {
		return
	}

	result, ok := h.compute(w, scenario)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, h.scheduleResponse(result))
}

type compareRequest struct {
	Scenarios []config.Scenario `json:"scenarios"`
}

type compareResponse struct {
	Results []compareResult        `json:"results"`
	Delta   map[string]interface{} `json:"delta,omitempty"`
}

type compareResult struct {
	Name     string                 `json:"name"`
	Summary  map[string]interface{} `json:"summary"`
	Schedule []output.ScheduleRow   `json:"schedule"`
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req compareRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if len(req.Scenarios) < 2 {
		h.respondError(w, http.StatusBadRequest, "compare requires at least two scenarios")
		return
	}

	resp := compareResponse{}
	var results []*engine.Result
	for _, scenario := range req.Scenarios {
		result, ok := h.compute(w, scenario)
		if !ok {
			return
		}
		results = append(results, result)
		resp.Results = append(resp.Results, compareResult{
			Name:     scenario.Name,
			Summary:  output.SummaryMap(result.Summary),
			Schedule: output.ScheduleRows(result.Entries),
		})
	}

	delta := compare.Diff(results[0].Summary, results[1].Summary)
	resp.Delta = map[string]interface{}{
		"total_interest": delta.TotalInterest.StringFixed(2),
		"total_cost":     delta.TotalCost.StringFixed(2),
		"max_payment":    delta.MaxPayment.StringFixed(2),
		"payments_made":  delta.PaymentsMade,
		"end_date_a":     delta.EndDateA,
		"end_date_b":     delta.EndDateB,
	}
	h.respondJSON(w, http.StatusOK, resp)
}

type saveComparisonRequest struct {
	Name     string          `json:"name"`
	Scenario config.Scenario `json:"scenario"`
}

func (h *handler) handleComparisons(w http.ResponseWriter, r *http.Request) {
	userToken := strings.TrimSpace(r.Header.Get(userTokenHeader))
	if userToken == "" {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("missing %s header", userTokenHeader))
		return
	}

	switch r.Method {
	case http.MethodGet:
		saved, err := h.store.List(r.Context(), userToken)
		if err != nil {
			h.logger.Error("failed to list saved comparisons", zap.String("op", "server.handleComparisons"), zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to list saved comparisons")
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]interface{}{"comparisons": saved})

	case http.MethodPost:
		var req saveComparisonRequest
		if !h.decodeBody(w, r, &req) {
			return
		}
		result, ok := h.compute(w, req.Scenario)
		if !ok {
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = req.Scenario.Name
		}
		saved := store.SavedScenario{
			ID:        newID(),
			Name:      name,
			Summary:   result.Summary,
			Schedule:  result.Entries,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.store.Add(r.Context(), userToken, saved); err != nil {
			h.logger.Error("failed to save comparison", zap.String("op", "server.handleComparisons"), zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to save comparison")
			return
		}
		h.respondJSON(w, http.StatusCreated, map[string]interface{}{"id": saved.ID})

	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		var err error
		if id == "" {
			err = h.store.Clear(r.Context(), userToken)
		} else {
			err = h.store.Remove(r.Context(), userToken, id)
		}
		if err != nil {
			h.logger.Error("failed to delete saved comparison", zap.String("op", "server.handleComparisons"), zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to delete saved comparison")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleScenarioYAML validates a scenario payload and returns it as a YAML
// scenario file, so a loan assembled in the web UI can be re-run with the CLI.
func (h *handler) handleScenarioYAML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var scenario config.Scenario
	if !h.decodeBody(w, r, &scenario) {
		return
	}
	if _, err := scenario.Build(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := (&config.File{Scenarios: []config.Scenario{scenario}}).YAML()
	if err != nil {
		h.logger.Error("failed to serialize scenario", zap.String("op", "server.handleScenarioYAML"), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to serialize scenario")
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="scenarios.yaml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// compute builds and evaluates one scenario, writing the error response
// itself when the input is invalid or the simulation diverges.
func (h *handler) compute(w http.ResponseWriter, scenario config.Scenario) (*engine.Result, bool) {
	cfg, err := scenario.Build()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	start := time.Now()
	result, err := h.engine.ComputeSchedule(cfg)
	computeSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		var configErr *engine.ConfigError
		if errors.As(err, &configErr) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		var divergence *engine.DivergenceError
		if errors.As(err, &divergence) {
			h.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return nil, false
		}
		h.logger.Error("schedule computation failed", zap.String("op", "server.compute"), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "schedule computation failed")
		return nil, false
	}
	return result, true
}

func (h *handler) scheduleResponse(result *engine.Result) scheduleResponse {
	var csvBuf bytes.Buffer
	if err := output.CSVSchedule(&csvBuf, result.Entries); err != nil {
		h.logger.Warn("failed to render CSV", zap.String("op", "server.scheduleResponse"), zap.Error(err))
	}
	return scheduleResponse{
		Summary:  output.SummaryMap(result.Summary),
		Schedule: output.ScheduleRows(result.Entries),
		CSV:      csvBuf.String(),
	}
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize))
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err))
		return false
	}
	return true
}

func (h *handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to write response", zap.String("op", "server.respondJSON"), zap.Error(err))
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
