package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/repository"
)

// ProfileHandler manages subscription tiers. Tier changes arrive from the
// billing collaborator (or an administrator acting for it); the scan path
// only ever reads tiers.
type ProfileHandler struct {
	Profiles *repository.ProfileRepo
}

func NewProfileHandler(profiles *repository.ProfileRepo) *ProfileHandler {
	if profiles == nil {
		panic("nil dependency passed to NewProfileHandler")
	}
	return &ProfileHandler{Profiles: profiles}
}

type setTierReq struct {
	Tier string `json:"tier"`
}

// SetTier handles PUT /v1/users/:id/tier (admin only). Unknown tier names
// are rejected rather than silently coerced to free.
func (h *ProfileHandler) SetTier(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setTierReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	raw := strings.ToLower(strings.TrimSpace(req.Tier))
	tier := model.ParseTier(raw)
	if string(tier) != raw {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier must be free, monthly or annual"})
	}
	if err := h.Profiles.UpsertTier(c.Request().Context(), userID, tier); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tier"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "tier": tier})
}

// MyTier handles GET /v1/tier: the caller's resolved tier and whether it
// is metered.
func (h *ProfileHandler) MyTier(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tier := h.Profiles.ResolveTier(c.Request().Context(), userID)
	return c.JSON(http.StatusOK, echo.Map{"tier": tier, "metered": tier.Metered()})
}
