package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-booking/internal/handler"
	"github.com/iliyamo/hotel-room-booking/internal/middleware"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance. Currently it exposes only a health
// check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes and the protected /v1/me
// endpoint. Unauthenticated operations live under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout does not require JWT authentication; it accepts either a
	// bearer token or a refresh_token body.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: the
// room catalogue, resolved month availability and the live watch
// stream. cacheMW may be nil when response caching is disabled.
func RegisterPublic(e *echo.Echo, rooms *handler.RoomHandler, avail *handler.AvailabilityHandler, cacheMW echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cacheMW != nil {
		mws = append(mws, cacheMW)
	}
	e.GET("/v1/rooms", rooms.List, mws...)
	e.GET("/v1/rooms/:id", rooms.Get, mws...)
	e.GET("/v1/rooms/:id/availability", avail.Get)
	e.GET("/v1/rooms/:id/availability/watch", avail.Watch)
}

// RegisterBookings registers guest booking endpoints under /v1. All
// routes require a valid JWT; admission itself is additionally
// rate-limited when rateMW is non-nil so a retry storm cannot hammer
// the exclusion constraint.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, rateMW echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleGuest, model.RoleAdmin),
	)
	if rateMW != nil {
		g.POST("/bookings", b.Create, rateMW)
	} else {
		g.POST("/bookings", b.Create)
	}
	g.GET("/my-bookings", b.ListMine)
	g.GET("/bookings/:id", b.Get)
}

// RegisterAdmin registers the calendar and booking administration
// endpoints under /v1/admin. The role middleware gates routing; the
// ledger re-checks the admin role against the database before any
// write.
func RegisterAdmin(e *echo.Echo, cal *handler.CalendarHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.PUT("/rooms/:id/calendar/:date", cal.SetDay)
	g.GET("/rooms/:id/calendar", cal.GetMonth)
	g.PATCH("/bookings/:id/status", b.UpdateStatus)
}
