package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/scamshield/scamshield/internal/analyzer"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/repository"
	"github.com/scamshield/scamshield/internal/service"
)

// ScanHandler serves scan submission, history, quota diagnostics and
// dashboard stats. The admission controller owns the submission pipeline;
// the repositories back the read-only endpoints. All methods assume JWT
// authentication has already run.
type ScanHandler struct {
	Admission *service.Admission
	Scans     *repository.ScanRepo
	Quota     *repository.QuotaRepo
	Profiles  *repository.ProfileRepo
}

// NewScanHandler constructs a ScanHandler. All dependencies must be
// non-nil.
func NewScanHandler(adm *service.Admission, scans *repository.ScanRepo, quota *repository.QuotaRepo, profiles *repository.ProfileRepo) *ScanHandler {
	if adm == nil || scans == nil || quota == nil || profiles == nil {
		panic("nil dependency passed to NewScanHandler")
	}
	return &ScanHandler{Admission: adm, Scans: scans, Quota: quota, Profiles: profiles}
}

type submitReq struct {
	Content  string `json:"content"`
	Type     string `json:"type"`      // "text" | "file"
	FileType string `json:"file_type"` // media type, file submissions only
}

// Submit handles POST /v1/scans. The response is the persisted scan on
// success; failures carry a typed error string and, where sensible, a
// retry hint. Quota exhaustion is a distinct expected outcome surfaced as
// an upgrade prompt with HTTP 429.
func (h *ScanHandler) Submit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	kind := model.ScanKind(strings.ToLower(strings.TrimSpace(req.Type)))
	if kind == "" {
		kind = model.ScanText
	}
	if !kind.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be text or file"})
	}

	progress := func(stage service.Stage) {
		log.Debug().Uint64("user_id", userID).Str("stage", string(stage)).Msg("scan progress")
	}
	scan, err := h.Admission.Submit(c.Request().Context(), service.SubmitRequest{
		UserID:    userID,
		Kind:      kind,
		Content:   req.Content,
		MediaType: req.FileType,
	}, progress)
	if err != nil {
		return h.submitError(c, err)
	}
	return c.JSON(http.StatusCreated, scan)
}

// submitError maps pipeline failures onto HTTP responses.
func (h *ScanHandler) submitError(c echo.Context, err error) error {
	var quotaErr *service.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":   "quota_exceeded",
			"message": "You have reached your daily limit of free scans. Upgrade to Monthly or Annual for unlimited scans.",
			"limit":   quotaErr.Limit,
			"used":    quotaErr.Used,
		})
	case errors.Is(err, analyzer.ErrEmptyContent), errors.Is(err, analyzer.ErrUnsupportedMediaType):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation_error",
			"message": "Invalid content provided. Please check your input.",
		})
	case errors.Is(err, analyzer.ErrTimeout):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{
			"error":   "analysis_timeout",
			"message": "Scan timed out. Please try again.",
		})
	case errors.Is(err, analyzer.ErrUpstream):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":   "analysis_failed",
			"message": "Failed to scan content. Please try again.",
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan failed"})
	}
}

// List handles GET /v1/scans: the caller's history, newest first.
func (h *ScanHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scans, err := h.Scans.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load scans"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": scans})
}

// QuotaStatus handles GET /v1/quota: today's committed counter next to the
// caller's tier and limit.
func (h *ScanHandler) QuotaStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	tier := h.Profiles.ResolveTier(ctx, userID)
	date := h.Admission.Today()

	if !tier.Metered() {
		return c.JSON(http.StatusOK, echo.Map{
			"tier":      tier,
			"date":      date,
			"unlimited": true,
		})
	}
	count, err := h.Quota.Count(ctx, userID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load quota"})
	}
	limit := h.Admission.Limit()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tier":      tier,
		"date":      date,
		"count":     count,
		"limit":     limit,
		"remaining": remaining,
	})
}

// Stats handles GET /v1/stats: aggregate history counts for dashboards.
func (h *ScanHandler) Stats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	stats, err := h.Scans.StatsByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	return c.JSON(http.StatusOK, stats)
}
