package model

import "time"

// RiskLevel classifies the outcome of a content scan. The three values are
// produced by the analysis engine together with the numeric risk score and
// are stored verbatim; nothing downstream recomputes them.
type RiskLevel string

const (
	RiskSafe       RiskLevel = "safe"
	RiskSuspicious RiskLevel = "suspicious"
	RiskFraudulent RiskLevel = "fraudulent"
)

// Valid reports whether the level is one of the three known classifications.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskSafe, RiskSuspicious, RiskFraudulent:
		return true
	}
	return false
}

// ScanKind distinguishes inline text submissions from file submissions.
type ScanKind string

const (
	ScanText ScanKind = "text"
	ScanFile ScanKind = "file"
)

// Valid reports whether the kind is a known submission type.
func (k ScanKind) Valid() bool { return k == ScanText || k == ScanFile }

// Scan mirrors a row of the append-only `scans` table. A row is written
// only after the analysis engine returned a successful classification and
// is never updated afterwards.
//
// Fields:
//
//	ID        – UUID primary key.
//	UserID    – owner of the scan.
//	Kind      – "text" or "file".
//	Content   – inline text, or the file name for file scans.
//	FileType  – declared media type for file scans (nil for text).
//	RiskLevel – classification from the engine.
//	RiskScore – integer in [0,100], produced together with RiskLevel.
//	Analysis  – narrative explanation from the engine.
//	CreatedAt – insertion timestamp (UTC).
type Scan struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Kind      ScanKind  `json:"scan_type"`
	Content   string    `json:"content"`
	FileType  *string   `json:"file_type,omitempty"`
	RiskLevel RiskLevel `json:"risk_level"`
	RiskScore int       `json:"risk_score"`
	Analysis  string    `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanStats aggregates a user's history for the dashboard endpoints.
type ScanStats struct {
	Total      int `json:"total"`
	Safe       int `json:"safe"`
	Suspicious int `json:"suspicious"`
	Fraudulent int `json:"fraudulent"`
}
