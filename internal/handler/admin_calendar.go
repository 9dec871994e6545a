package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/model"
	"github.com/iliyamo/hotel-room-booking/internal/repository"
)

// CalendarHandler exposes the admin availability calendar. Writes go
// through the engine's ledger, which verifies the caller's admin role
// against the database rather than trusting the JWT role claim.
type CalendarHandler struct {
	Ledger       *engine.Ledger
	Availability *repository.AvailabilityRepo
}

func NewCalendarHandler(ledger *engine.Ledger, availability *repository.AvailabilityRepo) *CalendarHandler {
	if ledger == nil || availability == nil {
		panic("nil dependency passed to NewCalendarHandler")
	}
	return &CalendarHandler{Ledger: ledger, Availability: availability}
}

type setDayReq struct {
	Status             string `json:"status"`
	PriceOverrideCents *int64 `json:"price_override_cents"`
}

type dayResp struct {
	Date               string `json:"date"`
	Status             string `json:"status"`
	PriceOverrideCents *int64 `json:"price_override_cents,omitempty"`
}

// SetDay handles PUT /v1/admin/rooms/:id/calendar/:date. The write
// replaces the day's status and price override together. When the
// write contradicts existing bookings (for example blocking a day a
// guest already holds) the affected booking IDs are returned so the
// admin can resolve them; the write itself is not rejected.
func (h *CalendarHandler) SetDay(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	date, err := calendar.ParseDay(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	var req setDayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidDayStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be available, booked or blocked"})
	}

	affected, err := h.Ledger.SetDayStatus(c.Request().Context(), userID, roomID, date, req.Status, req.PriceOverrideCents)
	if err != nil {
		return engineError(c, err)
	}
	resp := echo.Map{
		"room_id": roomID,
		"date":    calendar.FormatDay(date),
		"status":  req.Status,
	}
	if req.PriceOverrideCents != nil {
		resp["price_override_cents"] = *req.PriceOverrideCents
	}
	if len(affected) > 0 {
		resp["affected_booking_ids"] = affected
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMonth handles GET /v1/admin/rooms/:id/calendar?month=YYYY-MM.
// Unlike the public availability view it returns the raw ledger rows,
// including booked markers and price overrides, for calendar editing.
func (h *CalendarHandler) GetMonth(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	anchor, month, err := monthAnchor(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be YYYY-MM"})
	}
	first, last := calendar.MonthBounds(anchor)
	rows, err := h.Availability.ListForRange(c.Request().Context(), roomID, first, last)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	days := make([]dayResp, 0, len(rows))
	for _, row := range rows {
		days = append(days, dayResp{
			Date:               calendar.FormatDay(row.Date),
			Status:             row.Status,
			PriceOverrideCents: row.PriceOverrideCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id": roomID,
		"month":   month,
		"days":    days,
	})
}
