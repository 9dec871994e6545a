package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-booking/internal/engine"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// engineError translates the engine's typed errors into HTTP
// responses. Validation failures are client-correctable (422),
// conflicts name the first losing date (409), authorization failures
// are 403 and store failures surface as 502 so callers can tell a
// broken backend from a rejected request.
func engineError(c echo.Context, err error) error {
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "invalid booking request",
			"fields": ve.Fields,
		})
	}
	var ce *engine.ConflictError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":            "room is not available for the requested dates",
			"conflicting_date": ce.Date.Format("2006-01-02"),
		})
	}
	if errors.Is(err, engine.ErrNotAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
	}
	if errors.Is(err, engine.ErrRoomNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	var ue *engine.UpstreamError
	if errors.As(err, &ue) {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
