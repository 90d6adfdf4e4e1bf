package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/middleware"
	"github.com/noah-isme/gema-lingua-api/internal/service"
	"github.com/noah-isme/gema-lingua-api/internal/utils"
)

// ScoringHandler exposes answer scoring endpoints.
type ScoringHandler struct {
	service  service.ScoringService
	holistic service.HolisticEvaluationService
	logger   zerolog.Logger
}

// NewScoringHandler constructs the handler. holistic may be nil to disable the holistic endpoint.
func NewScoringHandler(scoring service.ScoringService, holistic service.HolisticEvaluationService, logger zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		service:  scoring,
		holistic: holistic,
		logger:   logger.With().Str("component", "scoring_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *ScoringHandler) Register(router fiber.Router) {
	router.Post("/answers", h.scoreAnswer)
	router.Post("/batch", h.scoreBatch)
	router.Get("/tasks/:task_id/results", h.listResults)
	if h.holistic != nil {
		router.Post("/holistic", h.evaluateHolistic)
	}
}

func (h *ScoringHandler) scoreAnswer(c *fiber.Ctx) error {
	var payload dto.ScoreAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID, allowed := resolveUserID(c, payload.UserID)
	if !allowed {
		return utils.SendError(c, fiber.StatusForbidden, "cannot score answers for another user")
	}
	payload.UserID = userID

	response, err := h.service.ScoreAnswer(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer scored", response)
}

func (h *ScoringHandler) scoreBatch(c *fiber.Ctx) error {
	var payload dto.ScoreBatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID, allowed := resolveUserID(c, payload.UserID)
	if !allowed {
		return utils.SendError(c, fiber.StatusForbidden, "cannot score answers for another user")
	}
	payload.UserID = userID

	response, err := h.service.ScoreBatch(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	if len(response.Summary.SkippedQuestionIDs) > 0 {
		requestLogger(h.logger, c).Warn().
			Uint("task_id", payload.TaskID).
			Interface("skipped_question_ids", response.Summary.SkippedQuestionIDs).
			Msg("batch contained answers for unknown questions")
	}

	return utils.SendSuccess(c, "answers scored", response)
}

func (h *ScoringHandler) listResults(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "task_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	queryUser, err := parseQueryUint(c, "user_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id")
	}
	attempt, err := parseQueryInt(c, "attempt_number")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid attempt_number")
	}

	// Staff may list every learner; students only see their own results.
	userID := queryUser
	if userRoleFromContext(c) == middleware.AuthRoleStudent {
		var allowed bool
		if userID, allowed = resolveUserID(c, queryUser); !allowed {
			return utils.SendError(c, fiber.StatusForbidden, "cannot read results of another user")
		}
	}

	items, err := h.service.ListResults(requestContext(c), taskID, dto.ScoreHistoryQuery{UserID: userID, AttemptNumber: attempt})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, items, "results retrieved", map[string]int{"count": len(items)})
}

func (h *ScoringHandler) evaluateHolistic(c *fiber.Ctx) error {
	var payload dto.HolisticEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID, allowed := resolveUserID(c, payload.UserID)
	if !allowed {
		return utils.SendError(c, fiber.StatusForbidden, "cannot submit responses for another user")
	}
	payload.UserID = userID

	response, err := h.holistic.Evaluate(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "response evaluated", response)
}

func (h *ScoringHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, service.ErrQuestionNotFound), errors.Is(err, service.ErrTaskHasNoQuestions):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateAttempt):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidQuestion):
		requestLogger(h.logger, c).Warn().Err(err).Msg("stored question cannot be scored")
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "question cannot be scored")
	case errors.Is(err, service.ErrScorePersistence):
		requestLogger(h.logger, c).Error().Err(err).Msg("score could not be stored")
		return utils.SendError(c, fiber.StatusInternalServerError, "score could not be stored")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("scoring operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
