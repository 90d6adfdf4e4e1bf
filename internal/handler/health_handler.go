package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lingua-api/internal/config"
	"github.com/noah-isme/gema-lingua-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Judge       string    `json:"judge"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Judge:       judgeLabel(cfg.AIProvider),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// judgeLabel reports which AI judge grades free-text answers; "none" means the fallback rule.
func judgeLabel(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "none"
	}
	return provider
}
