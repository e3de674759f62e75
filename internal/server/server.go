// Package server assembles the echo application.
package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/logging"
	"github.com/sudo-init-do/tgwork/internal/marketplace"
	"github.com/sudo-init-do/tgwork/internal/messaging"
	mware "github.com/sudo-init-do/tgwork/internal/middleware"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
	"github.com/sudo-init-do/tgwork/internal/user"
	"github.com/sudo-init-do/tgwork/internal/validation"
)

// Deps is everything the routes need.
type Deps struct {
	Store         store.Store
	Tokens        *auth.Tokens
	Events        events.Publisher
	Hub           *events.Hub // optional
	Log           *zap.Logger
	AuthRateLimit float64

	// Resets mails password reset links; without it requests are accepted
	// and logged but nothing is sent.
	Resets auth.ResetMailer
	AppURL string

	Now   func() time.Time
	NewID func() string
}

// New returns an echo instance with every route mounted.
func New(d Deps) *echo.Echo {
	if d.Events == nil {
		d.Events = events.Discard{}
	}
	if d.AuthRateLimit <= 0 {
		d.AuthRateLimit = 20
	}
	v := validation.New()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger(d.Log))
	e.Use(middleware.CORS())

	// Health routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "tgwork"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := d.Store.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "store unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	authH := &auth.Handler{
		Store:  d.Store,
		Tokens: d.Tokens,
		Resets: d.Resets,
		AppURL: d.AppURL,
		Log:    d.Log.Named("auth"),
	}
	userH := &user.Handler{
		Store:     d.Store,
		Tokens:    d.Tokens,
		Events:    d.Events,
		Validator: v,
		Log:       d.Log.Named("user"),
		Now:       d.Now,
		NewID:     d.NewID,
	}
	marketH := &marketplace.Handler{
		Store:  d.Store,
		Events: d.Events,
		Log:    d.Log.Named("marketplace"),
		Now:    d.Now,
		NewID:  d.NewID,
	}
	chatH := &messaging.Handler{
		Store:  d.Store,
		Events: d.Events,
		Log:    d.Log.Named("messaging"),
		Now:    d.Now,
		NewID:  d.NewID,
	}

	api := e.Group("/api")
	jwt := mware.JWT(d.Tokens)

	// Auth routes with per-IP rate limiting to protect login and signup from abuse
	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit)))
	api.POST("/auth/login", authH.Login, limiter)
	api.GET("/auth/me", authH.Me, jwt)
	api.POST("/auth/password/request", authH.RequestPasswordReset, limiter)
	api.POST("/auth/password/reset", authH.ResetPassword, limiter)

	// User records
	api.GET("/users/all", userH.AllUsers)
	api.POST("/users/save", userH.SaveUser, limiter, mware.OptionalJWT(d.Tokens))
	api.GET("/users/:email", userH.GetUser)
	api.GET("/users/:email/profile", userH.GetProfile)
	api.POST("/users/:email/reviews", marketH.LeaveReview, jwt)

	api.GET("/categories", marketH.Categories)

	// Protected marketplace routes
	m := api.Group("", jwt)
	m.GET("/marketplace", marketH.Feed)
	if d.Hub != nil {
		m.GET("/marketplace/ws", d.Hub.ServeWS)
	}

	m.POST("/services", marketH.CreateService)
	m.GET("/services/me", marketH.GetUserServices)
	m.DELETE("/services/:id", marketH.DeleteService)
	m.POST("/services/:id/status", marketH.UpdateServiceStatus)

	m.POST("/orders", marketH.CreateOrder)
	m.GET("/orders/me", marketH.GetUserOrders)
	m.DELETE("/orders/:id", marketH.DeleteOrder)
	m.POST("/orders/:id/status", marketH.UpdateOrderStatus)
	m.POST("/orders/:id/bids", marketH.PlaceBid, mware.RequireAccountType(models.Freelancer))
	m.GET("/orders/:id/bids", marketH.ListBids)

	// Order chat
	m.POST("/orders/:id/messages", chatH.SendMessage)
	m.GET("/orders/:id/messages", chatH.ListMessages)
	m.GET("/orders/:id/messages/unread", chatH.UnreadCount)
	m.PUT("/orders/:id/messages/:message_id", chatH.EditMessage)
	m.DELETE("/orders/:id/messages/:message_id", chatH.DeleteMessage)
	m.POST("/orders/:id/messages/:message_id/read", chatH.MarkMessageRead)

	return e
}
