package app

import (
	"errors"
	"time"

	"recipebox/internal/cache"
	"recipebox/internal/handlers"
	"recipebox/internal/middleware"
	"recipebox/internal/repositories"
	"recipebox/internal/services"
	"recipebox/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Options are the resources the HTTP application is built from.
type Options struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
	// Cache is the Redis user cache. Nil disables caching.
	Cache *cache.Cache
	// Broker publishes recipe events. Nil disables publishing.
	Broker *rabbitmq.Client
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// NewApp wires repositories, services and handlers into a Fiber app.
func NewApp(opts Options) (*fiber.App, *services.AuthService, error) {
	if opts.DB == nil {
		return nil, nil, errors.New("database is required")
	}
	if opts.JWTSecret == "" {
		return nil, nil, errors.New("jwt secret is required")
	}

	// Typed nil pointers must not leak into the interfaces below.
	var (
		userCache services.UserCache
		pinger    handlers.Pinger
		publisher services.EventPublisher
		broker    handlers.BrokerStatus
	)
	if opts.Cache != nil {
		userCache, pinger = opts.Cache, opts.Cache
	}
	if opts.Broker != nil {
		publisher, broker = opts.Broker, opts.Broker
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(opts.DB)
	tagRepo := repositories.NewGORMTagRepository(opts.DB)
	ingredientRepo := repositories.NewGORMIngredientRepository(opts.DB)
	recipeRepo := repositories.NewGORMRecipeRepository(opts.DB)

	// --- Services ---
	authService := services.NewAuthService(userRepo, userCache, opts.JWTSecret, opts.TokenTTL)
	adminService := services.NewAdminService(userRepo, userCache)
	tagService := services.NewTagService(tagRepo)
	ingredientService := services.NewIngredientService(ingredientRepo)
	recipeService := services.NewRecipeService(recipeRepo, tagRepo, ingredientRepo, publisher)

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:      "recipebox",
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	requireAuth := middleware.AuthRequired(authService)

	handlers.NewHealthHandler(opts.DB, pinger, broker).RegisterRoutes(app)
	handlers.NewAuthHandler(authService).RegisterRoutes(app, requireAuth)
	handlers.NewAdminHandler(adminService).RegisterRoutes(app, requireAuth)

	recipeRoutes := app.Group("/recipe", requireAuth)
	handlers.NewTagHandler(tagService).RegisterRoutes(recipeRoutes)
	handlers.NewIngredientHandler(ingredientService).RegisterRoutes(recipeRoutes)
	handlers.NewRecipeHandler(recipeService).RegisterRoutes(recipeRoutes)

	return app, authService, nil
}
