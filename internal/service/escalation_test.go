package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/location"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/queue"
)

// Mocks

type mockUsers struct {
	user model.User
	err  error
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return m.user, m.err
}

type mockLatest struct {
	scan model.Scan
	err  error
}

func (m *mockLatest) Latest(ctx context.Context, userID uint64) (model.Scan, error) {
	return m.scan, m.err
}

type mockLocator struct {
	loc string
	err error
}

func (m *mockLocator) Locate(ctx context.Context) (string, error) {
	return m.loc, m.err
}

type capturedPublish struct {
	event queue.SOSAlertEvent
	err   error
	calls int
}

func (p *capturedPublish) fn(ctx context.Context, ev queue.SOSAlertEvent) error {
	p.calls++
	p.event = ev
	return p.err
}

func newEscalationForTest(users *mockUsers, scans *mockLatest, locator location.Provider, pub *capturedPublish) *Escalation {
	e := NewEscalation(users, scans, locator, pub.fn, 200)
	e.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return e
}

// Test Cases

func TestDispatch_FullPayload(t *testing.T) {
	users := &mockUsers{user: model.User{ID: 7, Email: "ada@example.com"}}
	scans := &mockLatest{scan: model.Scan{
		RiskLevel: model.RiskFraudulent,
		Analysis:  "Caller impersonated a bank employee and requested a transfer.",
	}}
	pub := &capturedPublish{}
	e := newEscalationForTest(users, scans, &mockLocator{loc: "Lat: 52.52, Lng: 13.405"}, pub)

	ev, err := e.Dispatch(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "ada@example.com", ev.UserName)
	assert.Equal(t, "Lat: 52.52, Lng: 13.405", ev.Location)
	assert.Equal(t, "Risk Level: fraudulent, Analysis: Caller impersonated a bank employee and requested a transfer....", ev.ScamDetails)
	assert.Equal(t, "2026-03-14T09:30:00Z", ev.Timestamp)
}

func TestDispatch_DetailsTruncatedAtLimit(t *testing.T) {
	long := strings.Repeat("z", 350)
	scans := &mockLatest{scan: model.Scan{RiskLevel: model.RiskSuspicious, Analysis: long}}
	pub := &capturedPublish{}
	e := newEscalationForTest(&mockUsers{user: model.User{Email: "a@b.c"}}, scans, nil, pub)

	ev, err := e.Dispatch(context.Background(), 7)

	require.NoError(t, err)
	want := "Risk Level: suspicious, Analysis: " + strings.Repeat("z", 200) + "..."
	assert.Equal(t, want, ev.ScamDetails)
}

func TestDispatch_TruncationKeepsValidUTF8(t *testing.T) {
	// 100 three-byte runes = 300 bytes; a byte cut at 200 would land
	// mid-rune.
	long := strings.Repeat("€", 100)
	scans := &mockLatest{scan: model.Scan{RiskLevel: model.RiskSuspicious, Analysis: long}}
	pub := &capturedPublish{}
	e := newEscalationForTest(&mockUsers{user: model.User{Email: "a@b.c"}}, scans, nil, pub)

	ev, err := e.Dispatch(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, utf8.ValidString(ev.ScamDetails))
	prefix := strings.TrimSuffix(strings.TrimPrefix(ev.ScamDetails, "Risk Level: suspicious, Analysis: "), "...")
	assert.LessOrEqual(t, len(prefix), 200)
	assert.Equal(t, strings.Repeat("€", 66), prefix)
}

func TestDispatch_FallbacksOnAuxiliaryFailures(t *testing.T) {
	users := &mockUsers{err: errors.New("db down")}
	scans := &mockLatest{err: sql.ErrNoRows}
	locator := &mockLocator{err: errors.New("provider unreachable")}
	pub := &capturedPublish{}
	e := newEscalationForTest(users, scans, locator, pub)

	ev, err := e.Dispatch(context.Background(), 42)

	require.NoError(t, err, "auxiliary failures must never block an SOS")
	assert.Equal(t, "user 42", ev.UserName)
	assert.Equal(t, location.Unavailable, ev.Location)
	assert.Equal(t, NoRecentScans, ev.ScamDetails)
	assert.Equal(t, 1, pub.calls)
}

func TestDispatch_NilLocatorMeansUnavailable(t *testing.T) {
	pub := &capturedPublish{}
	e := newEscalationForTest(&mockUsers{user: model.User{Email: "a@b.c"}}, &mockLatest{err: sql.ErrNoRows}, nil, pub)

	ev, err := e.Dispatch(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, location.Unavailable, ev.Location)
}

func TestDispatch_HistoryFaultDegradesToFallback(t *testing.T) {
	scans := &mockLatest{err: errors.New("table corrupted")}
	pub := &capturedPublish{}
	e := newEscalationForTest(&mockUsers{user: model.User{Email: "a@b.c"}}, scans, nil, pub)

	ev, err := e.Dispatch(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, NoRecentScans, ev.ScamDetails)
}

func TestDispatch_DeliveryFailure(t *testing.T) {
	pub := &capturedPublish{err: errors.New("broker unreachable")}
	e := newEscalationForTest(&mockUsers{user: model.User{Email: "a@b.c"}}, &mockLatest{err: sql.ErrNoRows}, nil, pub)

	ev, err := e.Dispatch(context.Background(), 7)

	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 1, pub.calls, "delivery is attempted once, never retried")
	assert.NotEmpty(t, ev.EventID, "the composed event is returned even on failure")
}
