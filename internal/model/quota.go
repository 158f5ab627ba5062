package model

// QuotaReservation is the outcome of a single reserve attempt against the
// daily counter in `daily_scan_limits` (one row per (user, scan_date)
// pair; a missing row reads as zero). Count carries the committed counter
// value after the attempt: the new count when Allowed, the unchanged
// count when denied.
type QuotaReservation struct {
	Allowed bool
	Count   int
}
