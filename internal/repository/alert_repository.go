package repository

import (
	"context"
	"database/sql"

	"github.com/scamshield/scamshield/internal/model"
)

// AlertRepo provides access to the `alerts` table holding the broadcast
// security-alert feed.
type AlertRepo struct{ DB *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{DB: db} }

// Create inserts an alert and populates its generated ID.
func (r *AlertRepo) Create(ctx context.Context, a *model.Alert) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO alerts (title, description, category, severity) VALUES (?,?,?,?)",
		a.Title, a.Description, string(a.Category), string(a.Severity))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// List returns alerts newest-first. When criticalOnly is set (free-tier
// callers) the feed is restricted to critical severity.
func (r *AlertRepo) List(ctx context.Context, criticalOnly bool) ([]model.Alert, error) {
	q := `SELECT id, title, description, category, severity, created_at FROM alerts`
	args := []any{}
	if criticalOnly {
		q += ` WHERE severity = ?`
		args = append(args, string(model.SeverityCritical))
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	alerts := make([]model.Alert, 0)
	for rows.Next() {
		var a model.Alert
		var category, severity string
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &category, &severity, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Category = model.AlertCategory(category)
		a.Severity = model.AlertSeverity(severity)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}
