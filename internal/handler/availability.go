package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-booking/internal/cache"
	"github.com/iliyamo/hotel-room-booking/internal/engine"
)

// AvailabilityHandler serves resolved month views and the live watch
// stream. Responses are derived data: the resolver recomputes them
// from the database and the Redis cache only short-circuits repeat
// lookups between changes.
type AvailabilityHandler struct {
	Resolver *engine.Resolver
	Watcher  *engine.Watcher
	Cache    *cache.Availability
}

func NewAvailabilityHandler(resolver *engine.Resolver, watcher *engine.Watcher, c *cache.Availability) *AvailabilityHandler {
	if resolver == nil || watcher == nil {
		panic("nil dependency passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Resolver: resolver, Watcher: watcher, Cache: c}
}

// monthAnchor parses the month query parameter (YYYY-MM). An absent
// parameter means the current month.
func monthAnchor(c echo.Context) (time.Time, string, error) {
	raw := c.QueryParam("month")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now.Format("2006-01"), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid month %q", raw)
	}
	return t, raw, nil
}

// Get handles GET /v1/rooms/:id/availability?month=YYYY-MM. It
// returns the room's bookable dates and effective nightly prices for
// the month.
func (h *AvailabilityHandler) Get(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	anchor, month, err := monthAnchor(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be YYYY-MM"})
	}
	ctx := c.Request().Context()
	if res := h.Cache.Get(ctx, roomID, month); res != nil {
		return c.JSON(http.StatusOK, res)
	}
	res, err := h.Resolver.Resolve(ctx, roomID, anchor)
	if err != nil {
		return engineError(c, err)
	}
	h.Cache.Set(ctx, res)
	return c.JSON(http.StatusOK, res)
}

// Watch handles GET /v1/rooms/:id/availability/watch?month=YYYY-MM.
// It streams the month's resolution as server-sent events: one event
// immediately, then one per coalesced change until the client
// disconnects.
func (h *AvailabilityHandler) Watch(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	anchor, _, err := monthAnchor(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be YYYY-MM"})
	}
	ctx := c.Request().Context()

	initial, err := h.Resolver.Resolve(ctx, roomID, anchor)
	if err != nil {
		return engineError(c, err)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	send := func(res *engine.Resolution) error {
		body, err := json.Marshal(res)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(resp, "event: availability\ndata: %s\n\n", body); err != nil {
			return err
		}
		resp.Flush()
		return nil
	}
	if err := send(initial); err != nil {
		return nil
	}

	// Buffered so a slow client drops updates instead of blocking the
	// watcher's delivery goroutine. Missing an intermediate state is
	// fine: the next update carries the full view.
	updates := make(chan *engine.Resolution, 4)
	cancel := h.Watcher.Watch(roomID, anchor, func(res *engine.Resolution) {
		select {
		case updates <- res:
		default:
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-updates:
			if err := send(res); err != nil {
				return nil
			}
		}
	}
}
