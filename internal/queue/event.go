// Package queue defines message payloads exchanged over the message broker
// and the background relay that delivers them.
package queue

// SOSAlertEvent is published when a user confirms an emergency escalation.
// It bundles everything a responder channel needs without querying the
// primary database: who raised the alert, a best-effort position, and a
// compact summary of the most recent scan. Events are constructed fresh
// per confirmation and carry no idempotency key; for an emergency path a
// duplicate alert beats a suppressed one.
type SOSAlertEvent struct {
	EventID     string `json:"event_id"`
	UserName    string `json:"user_name"`
	Location    string `json:"location"`
	ScamDetails string `json:"scam_details"`
	Timestamp   string `json:"timestamp"`
}
