// Package service contains the orchestration layer: the scan admission
// controller that gates submissions behind the daily quota, and the SOS
// escalation dispatcher.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scamshield/scamshield/internal/analyzer"
	"github.com/scamshield/scamshield/internal/model"
)

// Stage is one step of a submission's life cycle. Every submission emits a
// bounded, ordered sequence of stages terminating in StageCompleted or
// StageFailed, driven by the real work rather than a timer.
type Stage string

const (
	StageSubmitted     Stage = "submitted"
	StageTierResolved  Stage = "tier_resolved"
	StageQuotaReserved Stage = "quota_reserved"
	StageQuotaBypassed Stage = "quota_bypassed"
	StageAnalyzing     Stage = "analyzing"
	StageCompleted     Stage = "completed"
	StageFailed        Stage = "failed"
)

// ProgressFunc receives stage transitions as they happen. A nil
// ProgressFunc is valid and means the caller does not care.
type ProgressFunc func(Stage)

// TierResolver maps a user to their subscription tier. It never fails;
// users without a profile row are free tier.
type TierResolver interface {
	ResolveTier(ctx context.Context, userID uint64) model.Tier
}

// QuotaLedger atomically claims one unit of a user's daily quota. The
// reservation decision must be made by a single conditional update keyed
// on (user, date); errors are storage faults only.
type QuotaLedger interface {
	TryReserve(ctx context.Context, userID uint64, date string, limit int) (model.QuotaReservation, error)
}

// ScanAppender persists completed scans.
type ScanAppender interface {
	Append(ctx context.Context, s *model.Scan) (string, error)
}

// QuotaExceededError is the expected outcome when a free-tier user has
// spent their daily allowance. Handlers surface it as an upgrade prompt,
// not a generic failure.
type QuotaExceededError struct {
	Limit int
	Used  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily scan limit of %d reached", e.Limit)
}

// SubmitRequest is one scan submission.
type SubmitRequest struct {
	UserID    uint64
	Kind      model.ScanKind
	Content   string // inline text, or the file name for file scans
	MediaType string // declared media type, file scans only
}

// Admission orchestrates a submission: resolve the tier, reserve quota for
// metered tiers, invoke the analysis engine, persist the result. The quota
// reservation happens strictly before the engine call and is kept even
// when the analysis later fails; the reservation is the admission gate,
// not a billing-on-success model.
type Admission struct {
	tiers  TierResolver
	quota  QuotaLedger
	engine analyzer.Engine
	scans  ScanAppender
	limit  int
	tz     *time.Location
	now    func() time.Time
}

// NewAdmission wires an admission controller. limit is the free-tier daily
// scan allowance; tz decides which calendar date a submission falls on
// (nil means UTC).
func NewAdmission(tiers TierResolver, quota QuotaLedger, engine analyzer.Engine, scans ScanAppender, limit int, tz *time.Location) *Admission {
	if tiers == nil || quota == nil || engine == nil || scans == nil {
		panic("nil dependency passed to NewAdmission")
	}
	if tz == nil {
		tz = time.UTC
	}
	return &Admission{
		tiers:  tiers,
		quota:  quota,
		engine: engine,
		scans:  scans,
		limit:  limit,
		tz:     tz,
		now:    time.Now,
	}
}

// Submit runs one submission to a terminal state. On success the returned
// scan is the persisted record. Failures are typed: *QuotaExceededError
// for an exhausted allowance, the analyzer sentinels for engine failures,
// and wrapped storage errors for everything fatal.
func (a *Admission) Submit(ctx context.Context, req SubmitRequest, progress ProgressFunc) (model.Scan, error) {
	emit := func(s Stage) {
		if progress != nil {
			progress(s)
		}
	}
	emit(StageSubmitted)

	// Reject bad input before spending quota or engine time.
	content := analyzer.Content{Kind: req.Kind, Body: req.Content, MediaType: req.MediaType}
	if err := analyzer.ValidateContent(content); err != nil {
		emit(StageFailed)
		return model.Scan{}, err
	}

	tier := a.tiers.ResolveTier(ctx, req.UserID)
	emit(StageTierResolved)

	if tier.Metered() {
		date := a.now().In(a.tz).Format("2006-01-02")
		res, err := a.quota.TryReserve(ctx, req.UserID, date, a.limit)
		if err != nil {
			emit(StageFailed)
			return model.Scan{}, fmt.Errorf("reserve quota: %w", err)
		}
		if !res.Allowed {
			emit(StageFailed)
			return model.Scan{}, &QuotaExceededError{Limit: a.limit, Used: res.Count}
		}
		emit(StageQuotaReserved)
	} else {
		emit(StageQuotaBypassed)
	}

	emit(StageAnalyzing)
	result, err := a.engine.Classify(ctx, content)
	if err != nil {
		// The reservation, if any, stays spent: admission was granted and
		// the engine call was made.
		emit(StageFailed)
		return model.Scan{}, err
	}

	scan := model.Scan{
		UserID:    req.UserID,
		Kind:      req.Kind,
		Content:   req.Content,
		RiskLevel: result.RiskLevel,
		RiskScore: result.RiskScore,
		Analysis:  result.Analysis,
		CreatedAt: a.now().UTC(),
	}
	if req.Kind == model.ScanFile && req.MediaType != "" {
		mt := req.MediaType
		scan.FileType = &mt
	}
	if _, err := a.scans.Append(ctx, &scan); err != nil {
		// Analysis succeeded but the record is gone; report the submission
		// as failed rather than pretend a partial success.
		emit(StageFailed)
		return model.Scan{}, fmt.Errorf("persist scan: %w", err)
	}

	log.Info().
		Uint64("user_id", req.UserID).
		Str("scan_id", scan.ID).
		Str("risk_level", string(scan.RiskLevel)).
		Int("risk_score", scan.RiskScore).
		Msg("scan completed")
	emit(StageCompleted)
	return scan, nil
}

// Today returns the calendar date submissions are currently metered under.
func (a *Admission) Today() string {
	return a.now().In(a.tz).Format("2006-01-02")
}

// Limit returns the configured free-tier daily allowance.
func (a *Admission) Limit() int { return a.limit }
