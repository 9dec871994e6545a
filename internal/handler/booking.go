package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/model"
	"github.com/iliyamo/hotel-room-booking/internal/queue"
	"github.com/iliyamo/hotel-room-booking/internal/repository"
	queue_publisher "github.com/iliyamo/hotel-room-booking/internal/service"
)

// BookingHandler exposes booking admission and lookup endpoints. All
// methods assume JWT authentication has been performed by middleware;
// admission itself re-checks availability and relies on the storage
// constraint for the final word, so two racing requests can both pass
// this handler and still only one will win.
type BookingHandler struct {
	Admission *engine.Admission
	Bookings  *repository.BookingRepo
	Notify    engine.Notifier
	validate  *validator.Validate
}

func NewBookingHandler(admission *engine.Admission, bookings *repository.BookingRepo, notify engine.Notifier) *BookingHandler {
	if admission == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	if notify == nil {
		notify = engine.NopNotifier{}
	}
	return &BookingHandler{
		Admission: admission,
		Bookings:  bookings,
		Notify:    notify,
		validate:  validator.New(),
	}
}

type createBookingReq struct {
	RoomID          uint64 `json:"room_id" validate:"required"`
	GuestName       string `json:"guest_name" validate:"required"`
	GuestEmail      string `json:"guest_email" validate:"required,email"`
	GuestPhone      string `json:"guest_phone" validate:"required"`
	GuestsCount     int    `json:"guests_count" validate:"required,min=1"`
	SpecialRequests string `json:"special_requests"`
	CheckIn         string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
}

type bookingResp struct {
	ID              uint64  `json:"id"`
	RoomID          uint64  `json:"room_id"`
	GuestName       string  `json:"guest_name"`
	GuestEmail      string  `json:"guest_email"`
	GuestPhone      string  `json:"guest_phone"`
	GuestsCount     int     `json:"guests_count"`
	SpecialRequests *string `json:"special_requests,omitempty"`
	CheckIn         string  `json:"check_in_date"`
	CheckOut        string  `json:"check_out_date"`
	Status          string  `json:"status"`
	TotalPriceCents int64   `json:"total_price_cents"`
	CreatedAt       string  `json:"created_at"`
}

func toBookingResp(r *model.Reservation) bookingResp {
	return bookingResp{
		ID:              r.ID,
		RoomID:          r.RoomID,
		GuestName:       r.GuestName,
		GuestEmail:      r.GuestEmail,
		GuestPhone:      r.GuestPhone,
		GuestsCount:     r.GuestsCount,
		SpecialRequests: r.SpecialRequests,
		CheckIn:         calendar.FormatDay(r.CheckIn),
		CheckOut:        calendar.FormatDay(r.CheckOut),
		Status:          r.Status,
		TotalPriceCents: r.TotalPriceCents,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// fieldErrors maps validator violations onto the same field/reason
// shape the engine's validation errors use, so clients see one format.
func fieldErrors(err error) []engine.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []engine.FieldError{{Field: "body", Reason: "invalid"}}
	}
	names := map[string]string{
		"RoomID":      "room_id",
		"GuestName":   "guest_name",
		"GuestEmail":  "guest_email",
		"GuestPhone":  "guest_phone",
		"GuestsCount": "guests_count",
		"CheckIn":     "check_in_date",
		"CheckOut":    "check_out_date",
	}
	out := make([]engine.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		jsonName := names[fe.Field()]
		if jsonName == "" {
			jsonName = strings.ToLower(fe.Field())
		}
		reason := "invalid"
		switch fe.Tag() {
		case "required":
			reason = "required"
		case "email":
			reason = "must be a valid email"
		case "min":
			reason = "must be at least " + fe.Param()
		case "datetime":
			reason = "must be formatted YYYY-MM-DD"
		}
		out = append(out, engine.FieldError{Field: jsonName, Reason: reason})
	}
	return out
}

// Create handles POST /v1/bookings. The optional Idempotency-Key
// header makes retrying a failed submission safe: a retry that
// carries the same key returns the originally admitted booking with
// 200 instead of creating a second one.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "invalid booking request",
			"fields": fieldErrors(err),
		})
	}
	checkIn, err := calendar.ParseDay(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "invalid booking request",
			"fields": []engine.FieldError{{Field: "check_in_date", Reason: "must be formatted YYYY-MM-DD"}},
		})
	}
	checkOut, err := calendar.ParseDay(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "invalid booking request",
			"fields": []engine.FieldError{{Field: "check_out_date", Reason: "must be formatted YYYY-MM-DD"}},
		})
	}

	draft := engine.Draft{
		RoomID:          req.RoomID,
		UserID:          userID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		GuestsCount:     req.GuestsCount,
		SpecialRequests: req.SpecialRequests,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		IdempotencyKey:  strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")),
	}

	ctx := c.Request().Context()
	res, replayed, err := h.Admission.Admit(ctx, draft)
	if err != nil {
		return engineError(c, err)
	}

	// A replayed idempotency key returns the original booking; only a
	// genuinely new admission gets 201 and a log event.
	if replayed {
		return c.JSON(http.StatusOK, toBookingResp(res))
	}
	go publishAdmitted(res)
	return c.JSON(http.StatusCreated, toBookingResp(res))
}

func publishAdmitted(res *model.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	nights, _ := calendar.NightsBetween(res.CheckIn, res.CheckOut)
	_ = queue_publisher.PublishBookingAdmitted(ctx, queue.BookingAdmittedEvent{
		BookingID:       res.ID,
		RoomID:          res.RoomID,
		UserID:          res.UserID,
		GuestName:       res.GuestName,
		CheckIn:         calendar.FormatDay(res.CheckIn),
		CheckOut:        calendar.FormatDay(res.CheckOut),
		Nights:          nights,
		TotalPriceCents: res.TotalPriceCents,
		Status:          res.Status,
		AdmittedAt:      time.Now().UTC().Format(time.RFC3339),
	})
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get handles GET /v1/bookings/:id. A booking is only visible to the
// user who created it.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, toBookingResp(res))
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// UpdateStatus handles PATCH /v1/admin/bookings/:id/status. Routed
// behind the admin role middleware. Cancelling frees the booking's
// nights, so a change notification goes out for watchers to refresh.
// A cancelled booking stays cancelled; reactivation is rejected with
// 409.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, confirmed or cancelled"})
	}
	ctx := c.Request().Context()
	res, err := h.Bookings.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		if errors.Is(err, repository.ErrBookingCancelled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "cancelled bookings cannot be reactivated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.Notify.AvailabilityChanged(ctx, "bookings", res.RoomID)
	return c.JSON(http.StatusOK, toBookingResp(res))
}
