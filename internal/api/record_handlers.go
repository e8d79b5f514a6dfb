package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// hoursQuery parses an ?hours= window, defaulting to 24.
func hoursQuery(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("hours")
	if v == "" {
		return 24, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// MetricRequest is the request body for POST /agents/{id}/metrics.
type MetricRequest struct {
	MetricType string         `json:"metric_type"`
	Value      map[string]any `json:"value"`
}

// MetricResponse is the JSON shape of a metric sample.
type MetricResponse struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agent_id"`
	MetricType string         `json:"metric_type"`
	Value      map[string]any `json:"value"`
	Timestamp  time.Time      `json:"timestamp"`
}

func toMetricResponse(m *storage.AgentMetric) MetricResponse {
	return MetricResponse{
		ID:         m.ID,
		AgentID:    m.AgentID,
		MetricType: m.MetricType,
		Value:      m.Value,
		Timestamp:  m.Timestamp,
	}
}

// HandleCreateMetric records a metric sample and bumps the agent's
// last_seen. POST /agents/{id}/metrics (agent key)
func (h *Handler) HandleCreateMetric(w http.ResponseWriter, r *http.Request) {
	var req MetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MetricType == "" {
		WriteError(w, http.StatusBadRequest, "metric_type is required")
		return
	}

	agentID := chi.URLParam(r, "id")
	now := time.Now().UTC()
	metric := &storage.AgentMetric{
		ID:         uuid.New().String(),
		AgentID:    agentID,
		MetricType: req.MetricType,
		Value:      req.Value,
		Timestamp:  now,
	}

	if err := h.store.CreateMetric(r.Context(), metric); err != nil {
		h.writeMappedError(w, err)
		return
	}

	// Metric submission doubles as a heartbeat
	if err := h.store.TouchAgent(r.Context(), agentID, now); err != nil {
		h.logger.Warn("failed to update last_seen", "agent_id", agentID, "error", err)
	}

	writeJSON(w, http.StatusCreated, toMetricResponse(metric))
}

// HandleListMetrics returns metrics for an agent within the query window.
// GET /agents/{id}/metrics?metric_type=&hours=24 (admin)
func (h *Handler) HandleListMetrics(w http.ResponseWriter, r *http.Request) {
	hours, ok := hoursQuery(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "hours must be a positive integer")
		return
	}

	metrics, err := h.store.ListMetrics(r.Context(), chi.URLParam(r, "id"), storage.MetricFilter{
		MetricType: r.URL.Query().Get("metric_type"),
		Since:      time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
	})
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	response := make([]MetricResponse, len(metrics))
	for i, m := range metrics {
		response[i] = toMetricResponse(m)
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleLatestMetric returns the newest metric of the requested type.
// GET /agents/{id}/metrics/latest?metric_type= (admin)
func (h *Handler) HandleLatestMetric(w http.ResponseWriter, r *http.Request) {
	metricType := r.URL.Query().Get("metric_type")
	if metricType == "" {
		WriteError(w, http.StatusBadRequest, "metric_type is required")
		return
	}

	metric, err := h.store.LatestMetric(r.Context(), chi.URLParam(r, "id"), metricType)
	if err != nil {
		h.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMetricResponse(metric))
}

// LogRequest is the request body for POST /agents/{id}/logs.
type LogRequest struct {
	Level    string         `json:"level"`
	Category string         `json:"category"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// LogResponse is the JSON shape of a log entry.
type LogResponse struct {
	ID        string         `json:"id"`
	AgentID   string         `json:"agent_id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}

func toLogResponse(l *storage.AgentLog) LogResponse {
	return LogResponse{
		ID:        l.ID,
		AgentID:   l.AgentID,
		Level:     l.Level,
		Category:  l.Category,
		Message:   l.Message,
		Details:   l.Details,
		Timestamp: l.Timestamp,
	}
}

// HandleCreateLog appends a log entry and bumps the agent's last_seen.
// POST /agents/{id}/logs (agent key)
func (h *Handler) HandleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Level == "" || req.Message == "" {
		WriteError(w, http.StatusBadRequest, "level and message are required")
		return
	}

	agentID := chi.URLParam(r, "id")
	now := time.Now().UTC()
	entry := &storage.AgentLog{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Level:     req.Level,
		Category:  req.Category,
		Message:   req.Message,
		Details:   req.Details,
		Timestamp: now,
	}

	if err := h.store.CreateLog(r.Context(), entry); err != nil {
		h.writeMappedError(w, err)
		return
	}

	if err := h.store.TouchAgent(r.Context(), agentID, now); err != nil {
		h.logger.Warn("failed to update last_seen", "agent_id", agentID, "error", err)
	}

	writeJSON(w, http.StatusCreated, toLogResponse(entry))
}

// HandleListLogs returns logs for one agent within the query window.
// GET /agents/{id}/logs?level=&category=&hours=24 (admin)
func (h *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	hours, ok := hoursQuery(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "hours must be a positive integer")
		return
	}

	q := r.URL.Query()
	logs, err := h.store.ListLogs(r.Context(), chi.URLParam(r, "id"), storage.LogFilter{
		Level:    q.Get("level"),
		Category: q.Get("category"),
		Since:    time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
	})
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	response := make([]LogResponse, len(logs))
	for i, l := range logs {
		response[i] = toLogResponse(l)
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleListAllLogs returns logs across the whole fleet.
// GET /logs?level=&category=&hours=24&limit=100 (admin)
func (h *Handler) HandleListAllLogs(w http.ResponseWriter, r *http.Request) {
	hours, ok := hoursQuery(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "hours must be a positive integer")
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit")) //nolint:errcheck
	logs, err := h.store.ListAllLogs(r.Context(), storage.LogFilter{
		Level:    q.Get("level"),
		Category: q.Get("category"),
		Since:    time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
		Limit:    limit,
	})
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	response := make([]LogResponse, len(logs))
	for i, l := range logs {
		response[i] = toLogResponse(l)
	}
	writeJSON(w, http.StatusOK, response)
}

// HandlePruneLogs deletes logs older than ?days= (default 30).
// DELETE /agents/{id}/logs?days=30 (admin)
func (h *Handler) HandlePruneLogs(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	agentID := chi.URLParam(r, "id")
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, err := h.store.PruneLogs(r.Context(), agentID, cutoff)
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "deleted": deleted})
}
