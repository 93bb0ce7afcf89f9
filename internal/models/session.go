package models

import "time"

// Session holds the state of one dashboard user between interactions.
// Handlers receive a Session value and return the updated value; the caller
// decides where it lives.
type Session struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Record      *FlowRecord `json:"record,omitempty"`
	Verdict     *Verdict    `json:"verdict,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
	Analyses    int         `json:"analyses"`
}

// HasAnalysis reports whether a record has been sampled and scored.
func (s Session) HasAnalysis() bool {
	return s.Record != nil && s.Verdict != nil
}

// VerdictEntry is one row of the verdict history.
type VerdictEntry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Severity   string    `json:"severity"`
	TrueLabel  string    `json:"true_label"`
	Timestamp  time.Time `json:"timestamp"`
}

// Alert represents a security alert raised for an attack verdict
type Alert struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"` // LOW, MEDIUM, HIGH, CRITICAL
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}
