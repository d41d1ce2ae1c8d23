package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus reports whether the message broker connection is usable.
type BrokerStatus interface {
	Healthy() bool
}

// HealthHandler reports the state of the service and its dependencies.
type HealthHandler struct {
	db     *gorm.DB
	cache  Pinger
	broker BrokerStatus
}

// NewHealthHandler creates a new HealthHandler. cache and broker may be nil.
func NewHealthHandler(db *gorm.DB, cache Pinger, broker BrokerStatus) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, broker: broker}
}

// RegisterRoutes registers the health endpoint.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth always answers 200 and reports each dependency separately.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": h.databaseStatus(ctx),
		"cache":    h.cacheStatus(ctx),
		"broker":   h.brokerStatus(),
	})
}

func (h *HealthHandler) databaseStatus(ctx context.Context) string {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) cacheStatus(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	if err := h.cache.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) brokerStatus() string {
	if h.broker == nil {
		return "disabled"
	}
	if !h.broker.Healthy() {
		return "down"
	}
	return "up"
}
