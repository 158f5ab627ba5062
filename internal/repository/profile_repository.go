package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/scamshield/scamshield/internal/model"
)

// ProfileRepo reads subscription tiers from the `profiles` table. The
// table is written by the external billing collaborator; this service only
// ever reads it.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// ResolveTier maps a user to their subscription tier. It never fails the
// caller: a missing profile row means the free tier, and a storage error
// degrades to free as well so that a billing-table outage cannot block
// scanning outright (the quota still applies).
func (r *ProfileRepo) ResolveTier(ctx context.Context, userID uint64) model.Tier {
	var raw string
	err := r.DB.QueryRowContext(ctx,
		"SELECT subscription_tier FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Uint64("user_id", userID).Msg("tier lookup failed, defaulting to free")
		}
		return model.TierFree
	}
	return model.ParseTier(raw)
}

// UpsertTier records a tier change. It exists for the billing webhook and
// for seeding test data; the scan path never calls it.
func (r *ProfileRepo) UpsertTier(ctx context.Context, userID uint64, tier model.Tier) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (user_id, subscription_tier) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE subscription_tier = VALUES(subscription_tier)`,
		userID, string(tier))
	return err
}
