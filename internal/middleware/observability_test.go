package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lingua-api/internal/observability"
)

func TestObservabilityCountsAPIRequests(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(Observability(zerolog.New(io.Discard)))
	app.Post("/api/v2/quiz-plans", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusUnprocessableEntity)
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	errors := observability.APIErrors().WithLabelValues(fiber.MethodPost, "/api/v2/quiz-plans", "422")
	before := testutil.ToFloat64(errors)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v2/quiz-plans", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, before+1, testutil.ToFloat64(errors))

	untracked := observability.APIRequests().WithLabelValues(fiber.MethodGet, "/metrics", "200")
	before = testutil.ToFloat64(untracked)
	_, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, before, testutil.ToFloat64(untracked))
}

func TestLatencyBucket(t *testing.T) {
	require.Equal(t, "<=25ms", latencyBucket(10*time.Millisecond))
	require.Equal(t, "<=100ms", latencyBucket(80*time.Millisecond))
	require.Equal(t, ">500ms", latencyBucket(time.Second))
}
