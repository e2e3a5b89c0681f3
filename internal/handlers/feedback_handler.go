package handlers

import (
	"strings"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/logger"
	"rezoomai/resume-api/internal/models"
	"rezoomai/resume-api/internal/repositories"
	"rezoomai/resume-api/internal/services"
)

const maxUserIDLength = 128

type FeedbackHandler struct {
	feedbackRepo repositories.FeedbackRepository
	log          *zap.Logger
}

// NewFeedbackHandler wires the history endpoints. A nil repository answers 503.
func NewFeedbackHandler(feedbackRepo repositories.FeedbackRepository, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackRepo: feedbackRepo,
		log:          logger.With(log),
	}
}

// HandleList handles GET /users/:userId/feedback
func (h *FeedbackHandler) HandleList(c *fiber.Ctx) error {
	if h.feedbackRepo == nil {
		return historyDisabled(c)
	}

	userID := c.Params("userId")
	if !validUserID(userID) {
		return invalidUserID(c)
	}

	items, err := h.feedbackRepo.FindByUser(userID, c.QueryInt("limit", repositories.DefaultHistoryLimit))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if items == nil {
		items = []models.Feedback{}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"feedback": items,
	})
}

// HandleCreate handles POST /users/:userId/feedback
func (h *FeedbackHandler) HandleCreate(c *fiber.Ctx) error {
	if h.feedbackRepo == nil {
		return historyDisabled(c)
	}

	userID := c.Params("userId")
	if !validUserID(userID) {
		return invalidUserID(c)
	}

	var req models.SaveFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if req.Analysis == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "analysis is required",
		})
	}

	entry := &models.Feedback{
		UserID:   userID,
		JobTitle: strings.TrimSpace(req.JobTitle),
		Company:  strings.TrimSpace(req.Company),
		Analysis: normalizeStored(req.Analysis),
	}
	if err := h.feedbackRepo.Create(entry); err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"feedback": entry,
	})
}

// normalizeStored applies the same range and empty-list rules as model replies.
func normalizeStored(a *models.AnalysisResult) *models.AnalysisResult {
	out := *a
	out.Score = services.ClampPercent(float64(a.Score))
	out.MatchRate = services.ClampPercent(float64(a.MatchRate))
	for _, l := range []*[]string{
		&out.Feedback.Strengths, &out.Feedback.Weaknesses, &out.Feedback.Suggestions,
		&out.Improvements.Content, &out.Improvements.Format, &out.Improvements.Keywords,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
	return &out
}

func validUserID(id string) bool {
	if id == "" || len(id) > maxUserIDLength {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r == '/'
	})
}

func invalidUserID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid user id",
	})
}

func historyDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Feedback history is not enabled",
	})
}
