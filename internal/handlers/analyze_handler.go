package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/logger"
	"rezoomai/resume-api/internal/models"
	"rezoomai/resume-api/internal/repositories"
	"rezoomai/resume-api/internal/services"
)

type AnalyzeHandler struct {
	analyzer     services.Analyzer
	feedbackRepo repositories.FeedbackRepository
	log          *zap.Logger
	now          func() time.Time
}

// NewAnalyzeHandler wires the analysis endpoint. feedbackRepo may be nil,
// in which case results are never recorded.
func NewAnalyzeHandler(
	analyzer services.Analyzer,
	feedbackRepo repositories.FeedbackRepository,
	log *zap.Logger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:     analyzer,
		feedbackRepo: feedbackRepo,
		log:          logger.With(log),
		now:          time.Now,
	}
}

// HandleAnalyze handles POST /analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req models.AnalysisRequest

	// An empty body is treated as {} so it fails on the missing resume text.
	if body := c.Body(); len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request payload",
			})
		}
	}

	analysis, err := h.analyzer.Analyze(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	if req.UserID != "" && h.feedbackRepo != nil {
		h.recordFeedback(req, analysis)
	}

	return c.JSON(models.AnalyzeResponse{
		Success:   true,
		Analysis:  analysis,
		Timestamp: models.Timestamp(h.now()),
	})
}

func (h *AnalyzeHandler) recordFeedback(req models.AnalysisRequest, analysis *models.AnalysisResult) {
	log := h.log.With(logger.Fields(logger.Field{Key: logger.FieldUserID, Value: req.UserID})...)

	if !validUserID(req.UserID) {
		log.Warn("not recording feedback for invalid user id")
		return
	}

	entry := &models.Feedback{
		UserID:    req.UserID,
		JobTitle:  req.JobTitle,
		Company:   req.Company,
		Analysis:  analysis,
		CreatedAt: h.now().UTC(),
	}
	if err := h.feedbackRepo.Create(entry); err != nil {
		log.Warn("failed to record feedback", zap.Error(err))
		return
	}
	log.Debug("feedback recorded", zap.String("feedback_id", entry.ID.String()))
}
