package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/scamshield/scamshield/internal/model"
)

// QuotaRepo owns the `daily_scan_limits` table: one counter row per
// (user_id, scan_date) pair, protected by a unique constraint on that
// composite key. All mutation goes through TryReserve so the limit can
// never be exceeded by a committed row, regardless of how many requests
// race on the same counter.
type QuotaRepo struct{ DB *sql.DB }

func NewQuotaRepo(db *sql.DB) *QuotaRepo { return &QuotaRepo{DB: db} }

// TryReserve atomically claims one unit of the user's daily quota. The
// whole check-and-increment is a single conditional statement, so two
// callers racing at count limit-1 serialize on the row and exactly one of
// them wins:
//
//	affected = 1 -> first scan of the day, row inserted with count 1
//	affected = 2 -> existing row incremented (MySQL reports changed
//	                ON DUPLICATE KEY updates as 2)
//	affected = 0 -> row already at the limit, nothing changed
//
// date must be a calendar date in YYYY-MM-DD form. The returned
// reservation carries the committed count; errors indicate storage faults
// only, never quota denial.
func (r *QuotaRepo) TryReserve(ctx context.Context, userID uint64, date string, limit int) (model.QuotaReservation, error) {
	if limit <= 0 {
		// A non-positive limit admits nothing; skip the insert so the row
		// count cannot jump past the limit on first use.
		count, err := r.Count(ctx, userID, date)
		if err != nil {
			return model.QuotaReservation{}, err
		}
		return model.QuotaReservation{Allowed: false, Count: count}, nil
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO daily_scan_limits (user_id, scan_date, scan_count) VALUES (?, ?, 1)
		 ON DUPLICATE KEY UPDATE scan_count = IF(scan_count < ?, scan_count + 1, scan_count)`,
		userID, date, limit)
	if err != nil {
		return model.QuotaReservation{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.QuotaReservation{}, err
	}
	if affected == 1 {
		return model.QuotaReservation{Allowed: true, Count: 1}, nil
	}
	// Reservation already resolved atomically above; this read is only for
	// reporting the committed count back to the caller.
	count, err := r.Count(ctx, userID, date)
	if err != nil {
		return model.QuotaReservation{}, err
	}
	return model.QuotaReservation{Allowed: affected == 2, Count: count}, nil
}

// Count returns the committed counter for the given user and date. A
// missing row reads as zero.
func (r *QuotaRepo) Count(ctx context.Context, userID uint64, date string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT scan_count FROM daily_scan_limits WHERE user_id=? AND scan_date=? LIMIT 1",
		userID, date).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
