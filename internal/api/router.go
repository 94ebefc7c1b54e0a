package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/stock-tracker/internal/api/handlers"
	custommiddleware "github.com/ndewijer/stock-tracker/internal/api/middleware"
	"github.com/ndewijer/stock-tracker/internal/config"
	"github.com/ndewijer/stock-tracker/internal/service"
)

// Services bundles the service layer the router exposes.
type Services struct {
	System        *service.SystemService
	Users         *service.UserService
	Portfolio     *service.PortfolioService
	Trades        *service.TradeService
	Exports       *service.ExportService
	Notifications *service.NotificationService

	// Now is the clock of the cron trigger; nil means time.Now.
	Now func() time.Time
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/auth", func(r chi.Router) {
			authHandler := handlers.NewAuthHandler(svc.Users, !cfg.Debug)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireSession(svc.Users))

			r.Route("/portfolio", func(r chi.Router) {
				portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Trades, svc.Exports)
				r.Get("/", portfolioHandler.Dashboard)
				r.Delete("/", portfolioHandler.Wipe)
				r.Post("/trade", portfolioHandler.Trade)
				r.Get("/export", portfolioHandler.Export)
			})

			r.Route("/account", func(r chi.Router) {
				accountHandler := handlers.NewAccountHandler(svc.Users, svc.Notifications)
				r.Delete("/", accountHandler.DeleteAccount)
				r.Get("/settings", accountHandler.GetSettings)
				r.Put("/settings", accountHandler.UpdateSettings)
				r.Post("/notifications/test", accountHandler.TestNotification)
			})
		})
	})

	r.Route("/cron", func(r chi.Router) {
		r.Use(custommiddleware.RequireCronSecret(cfg.Security.CronSecret))
		cronHandler := handlers.NewCronHandler(svc.Notifications, svc.Now)
		r.Get("/trigger", cronHandler.Trigger)
	})

	return r
}
