package metrics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
)

// QueryRecord captures one pass through the pipeline.
type QueryRecord struct {
	QueryID      string    `json:"query_id"`
	SessionID    string    `json:"session_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Jurisdiction string    `json:"jurisdiction"`
	LegalLens    string    `json:"legal_lens"`

	Intent        string `json:"intent,omitempty"`
	ParseFallback bool   `json:"parse_fallback"`
	ExpandedQuery string `json:"expanded_query,omitempty"`
	Keywords      int    `json:"keywords,omitempty"`
	Fragments     int    `json:"fragments"`
	HistoryTurns  int    `json:"history_turns"`

	StageLatencyMs map[string]int64 `json:"stage_latency_ms"`
	TotalLatencyMs int64            `json:"total_latency_ms"`
	Success        bool             `json:"success"`
	ErrorKind      string           `json:"error_kind,omitempty"`
	Error          string           `json:"error,omitempty"`

	start time.Time
}

// NewQueryRecord starts a record with a fresh query id.
func NewQueryRecord(sessionID, jurisdiction, lens string) *QueryRecord {
	now := time.Now()
	return &QueryRecord{
		QueryID:        uuid.NewString(),
		SessionID:      sessionID,
		Timestamp:      now,
		Jurisdiction:   jurisdiction,
		LegalLens:      lens,
		StageLatencyMs: map[string]int64{},
		start:          now,
	}
}

// Stage stores the latency of a completed stage.
func (r *QueryRecord) Stage(name string, start time.Time) {
	r.StageLatencyMs[name] = time.Since(start).Milliseconds()
}

// Finish closes the record with the query outcome.
func (r *QueryRecord) Finish(kind string, err error) {
	r.TotalLatencyMs = time.Since(r.start).Milliseconds()
	r.Success = err == nil
	if err != nil {
		r.ErrorKind = kind
		r.Error = err.Error()
	}
}

// LogJSON writes the record as a single JSON log line.
func (r *QueryRecord) LogJSON() {
	data, err := json.Marshal(r)
	if err != nil {
		logger.Warnf("metrics: marshal query record failed: %v", err)
		return
	}
	logger.Infof("[QUERY_METRICS] %s", data)
}
