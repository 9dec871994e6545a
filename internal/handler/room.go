package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/model"
	"github.com/iliyamo/hotel-room-booking/internal/repository"
)

// RoomHandler serves the public room catalogue. Listing and detail
// lookups are read-only and cacheable.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	if rooms == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms}
}

type roomResp struct {
	ID                 uint64 `json:"id"`
	HotelID            uint64 `json:"hotel_id"`
	Name               string `json:"name"`
	PricePerNightCents int64  `json:"price_per_night_cents"`
}

func toRoomResp(r model.Room) roomResp {
	return roomResp{
		ID:                 r.ID,
		HotelID:            r.HotelID,
		Name:               r.Name,
		PricePerNightCents: r.PricePerNightCents,
	}
}

// List handles GET /v1/rooms. Only active rooms are listed.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]roomResp, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// Get handles GET /v1/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), roomID)
	if err != nil {
		if errors.Is(err, engine.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toRoomResp(room))
}
