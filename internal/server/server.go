// Package server exposes the resolution engine over HTTP: clients POST a
// YAML model and receive the resolved value matrix. The server never mutates
// a model; every request is an independent resolution pass.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finforge/proforma/internal/engine"
	"github.com/finforge/proforma/internal/model"
	"github.com/finforge/proforma/pkg/constants"
	"github.com/finforge/proforma/pkg/output"
	"github.com/finforge/proforma/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the resolution API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Resolution API endpoint (YAML model in, matrix out)
	mux.HandleFunc("/api/resolve", h.handleResolve)

	// Model normalization endpoint for editor downloads
	mux.HandleFunc("/api/export", h.handleExport)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type resolveResponse struct {
	Periods  []int        `json:"periods"`
	Rows     []resolveRow `json:"rows"`
	CSV      string       `json:"csv"`
	Warnings []string     `json:"warnings,omitempty"`
	Duration string       `json:"duration"`
}

type resolveRow struct {
	Name   string     `json:"name"`
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
}

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	modelBytes, ok := h.readBody(w, r)
	if !ok {
		return
	}

	m, err := model.Parse(modelBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading model data, %v", err))
		return
	}
	if err := m.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid model: %v", err))
		return
	}

	warnings := modelWarnings(m)

	snap, err := m.Snapshot(h.logger)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid model: %v", err))
		return
	}
	result, err := engine.Resolve(h.logger, snap)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("resolution failed: %v", err))
		return
	}

	matrix := result.Matrix()
	labels := make(map[string]string, len(m.LineItems))
	for _, item := range m.LineItems {
		if item.Label != "" {
			labels[item.Name] = item.Label
		}
	}

	resp := resolveResponse{
		Periods:  matrix.Periods(),
		Duration: time.Since(start).String(),
		Warnings: warnings,
	}
	rows := output.DefaultRows(matrix)
	for _, row := range rows {
		values := make([]*float64, 0, len(resp.Periods))
		for _, period := range resp.Periods {
			if value, err := matrix.Value(row.Key, period); err == nil {
				v := value
				values = append(values, &v)
			} else {
				values = append(values, nil)
			}
		}
		label := row.Key
		if l, ok := labels[row.Key]; ok {
			label = l
		}
		resp.Rows = append(resp.Rows, resolveRow{Name: row.Key, Label: label, Values: values})
	}
	resp.CSV = output.Csv(matrix, rows)

	h.logger.Info("model resolved",
		zap.String("op", "server.handleResolve"),
		zap.Int("lineItems", len(m.LineItems)),
		zap.Int("periods", len(resp.Periods)),
		zap.Duration("duration", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, resp)
}

// handleExport echoes a normalized form of the posted model: defaults
// applied, fields ordered by the schema. Editors use it for downloads.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	modelBytes, ok := h.readBody(w, r)
	if !ok {
		return
	}
	m, err := model.Parse(modelBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading model data, %v", err))
		return
	}
	if err := m.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid model: %v", err))
		return
	}

	normalized, err := yaml.Marshal(m)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to serialize model: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(normalized); err != nil {
		h.logger.Warn("failed to write export response",
			zap.String("op", "server.handleExport"),
			zap.Error(err),
		)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return nil, false
	}
	if len(body) == 0 {
		h.respondError(w, http.StatusBadRequest, "missing model body")
		return nil, false
	}
	return body, true
}

func modelWarnings(m *model.Model) []string {
	mv := validation.ModelValidator{Periods: m.Periods}
	for _, item := range m.LineItems {
		info := validation.ItemInfo{Name: item.Name, Formula: item.Formula}
		for period := range item.Values {
			info.LiteralPeriods = append(info.LiteralPeriods, period)
		}
		mv.Items = append(mv.Items, info)
	}
	return mv.ValidateAll()
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.logger.Warn("request failed",
		zap.String("op", "server.respondError"),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
