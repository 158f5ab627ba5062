package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/scamshield/scamshield/internal/model"
)

// ScanRepo provides access to the append-only `scans` table. Rows are
// written once, after a successful analysis, and never updated; listing is
// always newest-first.
type ScanRepo struct{ DB *sql.DB }

func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{DB: db} }

// Append inserts a completed scan and returns its generated UUID. The
// caller's CreatedAt is stored verbatim so the row matches the record
// returned to the client; an unset timestamp falls back to now.
func (r *ScanRepo) Append(ctx context.Context, s *model.Scan) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	var fileType sql.NullString
	if s.FileType != nil {
		fileType = sql.NullString{String: *s.FileType, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO scans (id, user_id, scan_type, content, file_type, risk_level, risk_score, analysis, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, string(s.Kind), s.Content, fileType,
		string(s.RiskLevel), s.RiskScore, s.Analysis, s.CreatedAt)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// ListByUser returns all scans for the given user ordered most recent
// first. When no scans exist an empty slice is returned.
func (r *ScanRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Scan, error) {
	const q = `SELECT id, user_id, scan_type, content, file_type, risk_level, risk_score, analysis, created_at
	           FROM scans
	           WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	scans := make([]model.Scan, 0)
	for rows.Next() {
		s, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scans, nil
}

// Latest returns the user's most recent scan. sql.ErrNoRows means the
// user has no scan history.
func (r *ScanRepo) Latest(ctx context.Context, userID uint64) (model.Scan, error) {
	const q = `SELECT id, user_id, scan_type, content, file_type, risk_level, risk_score, analysis, created_at
	           FROM scans
	           WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC
	           LIMIT 1`
	return scanRow(r.DB.QueryRowContext(ctx, q, userID).Scan)
}

// StatsByUser aggregates the user's history into per-risk-level counts.
func (r *ScanRepo) StatsByUser(ctx context.Context, userID uint64) (model.ScanStats, error) {
	const q = `SELECT risk_level, COUNT(*) FROM scans WHERE user_id = ? GROUP BY risk_level`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return model.ScanStats{}, err
	}
	defer rows.Close()
	var stats model.ScanStats
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return model.ScanStats{}, err
		}
		stats.Total += n
		switch model.RiskLevel(level) {
		case model.RiskSafe:
			stats.Safe = n
		case model.RiskSuspicious:
			stats.Suspicious = n
		case model.RiskFraudulent:
			stats.Fraudulent = n
		}
	}
	if err := rows.Err(); err != nil {
		return model.ScanStats{}, err
	}
	return stats, nil
}

// scanRow maps one scans row through any Scan-shaped function, covering
// both sql.Row and sql.Rows.
func scanRow(scan func(dest ...any) error) (model.Scan, error) {
	var s model.Scan
	var kind, level string
	var fileType sql.NullString
	err := scan(&s.ID, &s.UserID, &kind, &s.Content, &fileType, &level, &s.RiskScore, &s.Analysis, &s.CreatedAt)
	if err != nil {
		return model.Scan{}, err
	}
	s.Kind = model.ScanKind(kind)
	s.RiskLevel = model.RiskLevel(level)
	if fileType.Valid {
		ft := fileType.String
		s.FileType = &ft
	}
	return s, nil
}
