package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/logger"
	"rezoomai/resume-api/internal/models"
	"rezoomai/resume-api/internal/services"
)

type UploadHandler struct {
	extractor   services.TextExtractor
	archive     services.Archive
	maxFileSize int64
	log         *zap.Logger
}

// NewUploadHandler wires the upload endpoint. archive may be nil.
func NewUploadHandler(
	extractor services.TextExtractor,
	archive services.Archive,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		extractor:   extractor,
		archive:     archive,
		maxFileSize: maxFileSize,
		log:         logger.With(log),
	}
}

// HandleUpload handles POST /upload
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	part, err := services.ParseResumeUpload(c.Body(), c.Get(fiber.HeaderContentType), isBase64Body(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	kind, err := services.KindFromFilename(part.FileName)
	if err != nil {
		return writeError(c, h.log, err)
	}

	size := int64(len(part.Data))
	if size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large. Maximum size is %d MB.", h.maxFileSize/(1<<20)),
		})
	}

	text, err := h.extractor.Extract(kind, part.Data)
	if err != nil {
		return writeError(c, h.log, err)
	}

	doc := models.ExtractedDocument{
		FileName: part.FileName,
		FileType: part.ContentType,
		FileSize: size,
		Text:     text,
	}
	if doc.FileType == "" {
		doc.FileType = kind.MIMEType()
	}

	log := h.log.With(logger.Fields(logger.Field{Key: logger.FieldFileName, Value: doc.FileName})...)

	var archiveKey string
	if h.archive != nil {
		key, err := h.archive.Save(c.UserContext(), doc.FileName, doc.FileType, part.Data)
		if err != nil {
			log.Warn("failed to archive upload", zap.Error(err))
		} else {
			archiveKey = key
		}
	}

	log.Info("resume extracted",
		zap.String("kind", string(kind)),
		zap.Int64("size", doc.FileSize),
		zap.Int("chars", len([]rune(doc.Text))),
	)
	return c.JSON(models.NewUploadResponse(doc, archiveKey))
}

// isBase64Body reports whether a gateway delivered the body base64-encoded.
func isBase64Body(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get("Content-Transfer-Encoding"), "base64") ||
		strings.EqualFold(c.Get("X-Body-Encoding"), "base64")
}
