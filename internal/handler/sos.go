package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scamshield/scamshield/internal/service"
)

// SOSHandler exposes the emergency escalation endpoint.
type SOSHandler struct {
	Escalation *service.Escalation
}

func NewSOSHandler(esc *service.Escalation) *SOSHandler {
	if esc == nil {
		panic("nil dependency passed to NewSOSHandler")
	}
	return &SOSHandler{Escalation: esc}
}

type sosReq struct {
	Confirm bool `json:"confirm"`
}

// Trigger handles POST /v1/sos. The client must send an explicit
// confirmation flag; an SOS is never dispatched as a side effect of a
// scan result. Delivery failure is the one error surfaced, together with
// the advisory to contact authorities directly.
func (h *SOSHandler) Trigger(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sosReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !req.Confirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirmation required"})
	}

	event, err := h.Escalation.Dispatch(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrDeliveryFailed) {
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":   "delivery_failed",
				"message": "Failed to send SOS alert. Please contact authorities directly.",
				"event":   event,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sos failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "SOS alert sent successfully",
		"event":   event,
	})
}
