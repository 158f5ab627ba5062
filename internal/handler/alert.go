package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/repository"
)

// AlertHandler serves the broadcast security-alert feed. Reads are open to
// every authenticated user; writes are restricted to administrators by the
// role middleware at registration time.
type AlertHandler struct {
	Alerts   *repository.AlertRepo
	Profiles *repository.ProfileRepo
}

func NewAlertHandler(alerts *repository.AlertRepo, profiles *repository.ProfileRepo) *AlertHandler {
	if alerts == nil || profiles == nil {
		panic("nil dependency passed to NewAlertHandler")
	}
	return &AlertHandler{Alerts: alerts, Profiles: profiles}
}

// List handles GET /v1/alerts. The caller's tier decides visibility:
// free-tier users only see critical alerts, paid tiers get the full feed.
func (h *AlertHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	tier := h.Profiles.ResolveTier(ctx, userID)
	alerts, err := h.Alerts.List(ctx, tier == model.TierFree)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load alerts"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": alerts, "tier": tier})
}

type createAlertReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
}

// Create handles POST /v1/alerts (admin only).
func (h *AlertHandler) Create(c echo.Context) error {
	var req createAlertReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description are required"})
	}
	category := model.AlertCategory(strings.ToLower(req.Category))
	if category == "" {
		category = model.CategoryOther
	}
	severity := model.AlertSeverity(strings.ToLower(req.Severity))
	if !category.Valid() || !severity.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category or severity"})
	}
	alert := &model.Alert{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Severity:    severity,
	}
	if err := h.Alerts.Create(c.Request().Context(), alert); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create alert"})
	}
	return c.JSON(http.StatusCreated, alert)
}
