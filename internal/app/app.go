// Package app assembles the Fiber application from its dependencies.
package app

import (
	"errors"
	"log"
	"time"

	"mernlog/internal/auth"
	"mernlog/internal/config"
	"mernlog/internal/database"
	"mernlog/internal/handlers"
	"mernlog/internal/metrics"
	"mernlog/internal/middleware"
	"mernlog/internal/security"
	"mernlog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps are the resources NewApp wires together. Revoker, Publisher and
// Kakao are optional.
type Deps struct {
	Config    *config.Config
	Stores    *database.Stores
	Revoker   services.TokenRevoker
	Publisher services.EventPublisher
	Kakao     auth.OAuthProvider
	// Registry receives the application metrics. A fresh registry is used
	// when nil.
	Registry *prometheus.Registry
	// AccessLog enables the request logger.
	AccessLog bool
}

// NewApp builds the services, handlers and routes.
func NewApp(d Deps) (*fiber.App, error) {
	if d.Config == nil || d.Stores == nil {
		return nil, errors.New("app: config and stores are required")
	}
	cfg := d.Config

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewContentSanitizer()

	kakao := d.Kakao
	if kakao == nil && cfg.KakaoEnabled() {
		kakao = auth.NewKakaoProvider(auth.KakaoConfig{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			RedirectURL:  cfg.KakaoRedirectURL,
		})
	}

	authOpts := []services.AuthOption{
		services.WithTokenDuration(cfg.JWTExpiration),
		services.WithBcryptCost(cfg.BcryptCost),
		services.WithAuthEvents(d.Publisher),
	}
	if d.Revoker != nil {
		authOpts = append(authOpts, services.WithRevoker(d.Revoker))
	}
	if kakao != nil {
		authOpts = append(authOpts, services.WithKakao(kakao))
	}

	// --- Services ---
	authService := services.NewAuthService(d.Stores.Users, cfg.JWTSecret, authOpts...)
	postService := services.NewPostService(d.Stores.Posts, d.Stores.Comments, sanitizer, d.Publisher, collector)
	commentService := services.NewCommentService(d.Stores.Comments, d.Stores.Posts, sanitizer, d.Publisher)
	userService := services.NewUserService(d.Stores.Users, postService, commentService, authService)

	// --- Handlers ---
	uploader, err := handlers.NewUploader(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{Secure: cfg.CookieSecure}, cfg.FrontendURL)
	postHandler := handlers.NewPostHandler(postService, uploader)
	commentHandler := handlers.NewCommentHandler(commentService)
	userHandler := handlers.NewUserHandler(userService, uploader)

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:   "mernlog",
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(corsConfig(cfg.FrontendURL)))
	app.Use(collector.Middleware())

	app.Static(handlers.UploadURLPrefix, uploader.Dir())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": cfg.DBDriver,
			"events":   d.Publisher != nil,
		})
	})
	app.Get("/metrics", metrics.Handler(reg))

	requireAuth := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)

	authHandler.RegisterRoutes(app, requireAuth)
	postHandler.RegisterRoutes(app, requireAuth, optionalAuth)
	commentHandler.RegisterRoutes(app, requireAuth, optionalAuth)
	userHandler.RegisterRoutes(app, requireAuth, optionalAuth)

	log.Printf("Routes registered (db=%s, kakao=%t)", cfg.DBDriver, kakao != nil)
	return app, nil
}

// corsConfig allows the frontend origin to send the session cookie.
func corsConfig(frontendURL string) cors.Config {
	if frontendURL == "" {
		return cors.Config{AllowOrigins: "*"}
	}
	return cors.Config{
		AllowOrigins:     frontendURL,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
	}
}
