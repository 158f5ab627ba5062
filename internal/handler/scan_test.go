package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/analyzer"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/service"
)

// Mocks

type stubTiers struct{ tier model.Tier }

func (s stubTiers) ResolveTier(ctx context.Context, userID uint64) model.Tier { return s.tier }

type stubLedger struct {
	res model.QuotaReservation
	err error
}

func (s stubLedger) TryReserve(ctx context.Context, userID uint64, date string, limit int) (model.QuotaReservation, error) {
	return s.res, s.err
}

type stubEngine struct {
	res analyzer.Result
	err error
}

func (s stubEngine) Classify(ctx context.Context, content analyzer.Content) (analyzer.Result, error) {
	return s.res, s.err
}

type stubAppender struct{ err error }

func (s stubAppender) Append(ctx context.Context, scan *model.Scan) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	scan.ID = "scan-1"
	return scan.ID, nil
}

func scanHandlerWith(ledger stubLedger, engine stubEngine, appender stubAppender) *ScanHandler {
	adm := service.NewAdmission(stubTiers{tier: model.TierFree}, ledger, engine, appender, 10, time.UTC)
	return &ScanHandler{Admission: adm}
}

func submitContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/scans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	return c, rec
}

// Test Cases

func TestSubmit_StatusMapping(t *testing.T) {
	okEngine := stubEngine{res: analyzer.Result{RiskLevel: model.RiskSafe, RiskScore: 5, Analysis: "nothing notable"}}
	granted := stubLedger{res: model.QuotaReservation{Allowed: true, Count: 1}}

	cases := []struct {
		name       string
		body       string
		ledger     stubLedger
		engine     stubEngine
		appender   stubAppender
		wantStatus int
		wantInBody string
	}{
		{
			name:       "success",
			body:       `{"content":"you won a prize","type":"text"}`,
			ledger:     granted,
			engine:     okEngine,
			wantStatus: http.StatusCreated,
			wantInBody: `"risk_level":"safe"`,
		},
		{
			name:       "quota exhausted",
			body:       `{"content":"you won a prize","type":"text"}`,
			ledger:     stubLedger{res: model.QuotaReservation{Allowed: false, Count: 10}},
			engine:     okEngine,
			wantStatus: http.StatusTooManyRequests,
			wantInBody: "Upgrade to Monthly or Annual",
		},
		{
			name:       "empty content",
			body:       `{"content":"   ","type":"text"}`,
			ledger:     granted,
			engine:     okEngine,
			wantStatus: http.StatusBadRequest,
			wantInBody: "validation_error",
		},
		{
			name:       "unsupported file type",
			body:       `{"content":"x.exe","type":"file","file_type":"application/x-msdownload"}`,
			ledger:     granted,
			engine:     okEngine,
			wantStatus: http.StatusBadRequest,
			wantInBody: "validation_error",
		},
		{
			name:       "unknown scan type",
			body:       `{"content":"hello","type":"voice"}`,
			ledger:     granted,
			engine:     okEngine,
			wantStatus: http.StatusBadRequest,
			wantInBody: "text or file",
		},
		{
			name:       "engine timeout",
			body:       `{"content":"hello","type":"text"}`,
			ledger:     granted,
			engine:     stubEngine{err: analyzer.ErrTimeout},
			wantStatus: http.StatusGatewayTimeout,
			wantInBody: "try again",
		},
		{
			name:       "engine upstream failure",
			body:       `{"content":"hello","type":"text"}`,
			ledger:     granted,
			engine:     stubEngine{err: analyzer.ErrUpstream},
			wantStatus: http.StatusBadGateway,
			wantInBody: "analysis_failed",
		},
		{
			name:       "ledger fault",
			body:       `{"content":"hello","type":"text"}`,
			ledger:     stubLedger{err: errors.New("deadlock")},
			engine:     okEngine,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "append fault",
			body:       `{"content":"hello","type":"text"}`,
			ledger:     granted,
			engine:     okEngine,
			appender:   stubAppender{err: errors.New("connection reset")},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := scanHandlerWith(tc.ledger, tc.engine, tc.appender)
			c, rec := submitContext(t, tc.body)

			require.NoError(t, h.Submit(c))
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantInBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantInBody)
			}
		})
	}
}

func TestSubmit_QuotaBodyCarriesLimitAndUsed(t *testing.T) {
	h := scanHandlerWith(stubLedger{res: model.QuotaReservation{Allowed: false, Count: 10}}, stubEngine{}, stubAppender{})
	c, rec := submitContext(t, `{"content":"hello","type":"text"}`)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":10`)
	assert.Contains(t, rec.Body.String(), `"used":10`)
}

func TestSubmit_MissingIdentity(t *testing.T) {
	h := scanHandlerWith(stubLedger{}, stubEngine{}, stubAppender{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/scans", strings.NewReader(`{"content":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Submit(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmit_DefaultsToTextKind(t *testing.T) {
	h := scanHandlerWith(
		stubLedger{res: model.QuotaReservation{Allowed: true, Count: 1}},
		stubEngine{res: analyzer.Result{RiskLevel: model.RiskSafe, RiskScore: 1, Analysis: "ok"}},
		stubAppender{},
	)
	c, rec := submitContext(t, `{"content":"no type field"}`)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scan_type":"text"`)
}
