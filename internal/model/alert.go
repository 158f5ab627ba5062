package model

import "time"

// AlertSeverity orders security alerts from informational to critical.
// Free-tier users only receive critical alerts; paid tiers see the full
// feed.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Valid reports whether the severity is one of the known values.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AlertCategory groups alerts by threat family.
type AlertCategory string

const (
	CategoryPhishing AlertCategory = "phishing"
	CategoryFraud    AlertCategory = "fraud"
	CategoryMalware  AlertCategory = "malware"
	CategoryOther    AlertCategory = "other"
)

// Valid reports whether the category is a known value.
func (c AlertCategory) Valid() bool {
	switch c {
	case CategoryPhishing, CategoryFraud, CategoryMalware, CategoryOther:
		return true
	}
	return false
}

// Alert mirrors a row of the `alerts` table: a broadcast security notice
// shown to all users, authored by administrators.
type Alert struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    AlertCategory `json:"category"`
	Severity    AlertSeverity `json:"severity"`
	CreatedAt   time.Time     `json:"created_at"`
}
