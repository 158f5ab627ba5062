package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scamshield/scamshield/internal/location"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/queue"
)

// NoRecentScans is the literal substituted into an escalation when the
// user has no scan history to summarize.
const NoRecentScans = "No recent scans available"

// ErrDeliveryFailed means the escalation event could not be handed to the
// notification channel. The dispatch itself still ran to completion;
// handlers translate this into the "contact authorities directly"
// advisory. Delivery is deliberately not retried.
var ErrDeliveryFailed = errors.New("sos alert delivery failed")

// LatestScanReader fetches a user's most recent scan; sql.ErrNoRows means
// no history.
type LatestScanReader interface {
	Latest(ctx context.Context, userID uint64) (model.Scan, error)
}

// UserReader resolves the identity placed into the escalation payload.
type UserReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// PublishFunc relays a composed event to the external notification
// channel.
type PublishFunc func(ctx context.Context, event queue.SOSAlertEvent) error

// Escalation assembles and relays user-confirmed emergency alerts. Every
// auxiliary lookup is best-effort: a slow or failing location provider or
// an empty scan history degrade to fallback literals and never block the
// dispatch beyond their own timeouts.
type Escalation struct {
	users     UserReader
	scans     LatestScanReader
	locator   location.Provider
	publish   PublishFunc
	detailMax int
	now       func() time.Time
}

// NewEscalation wires a dispatcher. locator may be nil (location always
// unavailable). detailMax bounds the analysis-narrative prefix embedded in
// the payload; non-positive values fall back to 200.
func NewEscalation(users UserReader, scans LatestScanReader, locator location.Provider, publish PublishFunc, detailMax int) *Escalation {
	if users == nil || scans == nil || publish == nil {
		panic("nil dependency passed to NewEscalation")
	}
	if detailMax <= 0 {
		detailMax = 200
	}
	return &Escalation{
		users:     users,
		scans:     scans,
		locator:   locator,
		publish:   publish,
		detailMax: detailMax,
		now:       time.Now,
	}
}

// Dispatch composes an escalation event for the user and relays it. It is
// invoked only after an explicit confirmation. The returned event is the
// payload that was (or was attempted to be) sent; the only error returned
// is ErrDeliveryFailed, because everything else degrades to fallbacks on
// the principle that an emergency alert with holes beats no alert.
func (e *Escalation) Dispatch(ctx context.Context, userID uint64) (queue.SOSAlertEvent, error) {
	userName := fmt.Sprintf("user %d", userID)
	if u, err := e.users.GetByID(ctx, userID); err == nil {
		userName = u.Email
	} else {
		log.Warn().Err(err).Uint64("user_id", userID).Msg("sos: user lookup failed")
	}

	loc := location.Unavailable
	if e.locator != nil {
		if l, err := e.locator.Locate(ctx); err == nil && l != "" {
			loc = l
		} else if err != nil {
			log.Warn().Err(err).Msg("sos: location lookup failed")
		}
	}

	details := NoRecentScans
	latest, err := e.scans.Latest(ctx, userID)
	switch {
	case err == nil:
		details = e.summarize(latest)
	case errors.Is(err, sql.ErrNoRows):
		// no history, keep the fallback
	default:
		log.Warn().Err(err).Uint64("user_id", userID).Msg("sos: scan history lookup failed")
	}

	ev := queue.SOSAlertEvent{
		EventID:     uuid.NewString(),
		UserName:    userName,
		Location:    loc,
		ScamDetails: details,
		Timestamp:   e.now().UTC().Format(time.RFC3339),
	}

	if err := e.publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("event_id", ev.EventID).Msg("sos: dispatch failed")
		return ev, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	log.Info().Str("event_id", ev.EventID).Msg("sos alert dispatched")
	return ev, nil
}

// summarize compacts the latest scan into a single payload line, keeping
// only a bounded prefix of the analysis narrative. The cut backs up to a
// rune boundary so the payload is always valid UTF-8.
func (e *Escalation) summarize(s model.Scan) string {
	analysis := s.Analysis
	if len(analysis) > e.detailMax {
		cut := e.detailMax
		for cut > 0 && !utf8.RuneStart(analysis[cut]) {
			cut--
		}
		analysis = analysis[:cut]
	}
	return fmt.Sprintf("Risk Level: %s, Analysis: %s...", s.RiskLevel, analysis)
}
