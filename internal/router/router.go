package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/qso-logbook/internal/config"
	"github.com/iliyamo/qso-logbook/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/qso-logbook/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: the handler accepts a
	// refresh_token body, or an Authorization header to end all sessions.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OPERATOR", "ADMIN"))
	auth.GET("/me", a.Me)

	// Alias so clients can call /v1/logout with a refresh token too.
	e.POST("/v1/logout", a.Logout)
}

// RegisterLogbook registers the contact log, profile and call-sign
// search endpoints. Everything here requires a valid access token; both
// roles may log contacts.
func RegisterLogbook(e *echo.Echo, ct *handler.ContactHandler, p *handler.ProfileHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OPERATOR", "ADMIN"))

	// The QSO log itself.
	g.POST("/qsos", ct.Log)
	g.GET("/qsos", ct.List)
	g.DELETE("/qsos/:id", ct.Delete)

	// Recipient typeahead for the log form: ?q=<prefix>.
	g.GET("/operators/callsigns", p.SearchCallSigns)

	// Own account.
	g.GET("/profile", p.Get)
	g.PUT("/profile", p.Update)
	g.POST("/profile/password", p.ChangePassword)
}

// RegisterAdmin registers the approval queue under /v1/admin. Only
// administrators pass the role middleware.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.GET("/operators/pending", a.ListPending)
	g.POST("/operators/:id/approve", a.Approve)
}

// RegisterPublic registers the unauthenticated leaderboard. The route
// sits behind the Redis response cache so repeated hits do not recompute
// the aggregate; rdb may be nil, in which case the cache middleware is a
// pass-through.
func RegisterPublic(e *echo.Echo, r *handler.RankingHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/v1/rankings", r.GetRankings, middleware.NewRedisCache(cacheCfg, rdb))
}
