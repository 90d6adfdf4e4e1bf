package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/planner"
	"github.com/noah-isme/gema-lingua-api/internal/service"
	"github.com/noah-isme/gema-lingua-api/internal/utils"
)

// QuizPlanHandler exposes the quiz planning endpoint.
type QuizPlanHandler struct {
	service service.QuizPlanService
	logger  zerolog.Logger
}

// NewQuizPlanHandler constructs the handler.
func NewQuizPlanHandler(service service.QuizPlanService, logger zerolog.Logger) *QuizPlanHandler {
	return &QuizPlanHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_plan_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *QuizPlanHandler) Register(router fiber.Router) {
	router.Post("", h.plan)
}

func (h *QuizPlanHandler) plan(c *fiber.Ctx) error {
	var payload dto.QuizPlanRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Plan(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz planned", response)
}

func (h *QuizPlanHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, planner.ErrInvalidTarget),
		errors.Is(err, planner.ErrUnknownLevel),
		errors.Is(err, planner.ErrUnknownType),
		errors.Is(err, planner.ErrNoAllowedTypes):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, planner.ErrNoEligibleTypes), errors.Is(err, planner.ErrPlanInexact):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("quiz planning failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
