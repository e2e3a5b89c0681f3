package handlers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/logger"
	"rezoomai/resume-api/internal/models"
	"rezoomai/resume-api/internal/repositories"
)

type ProfileHandler struct {
	profileRepo repositories.ProfileRepository
	log         *zap.Logger
	now         func() time.Time
}

// NewProfileHandler wires the profile endpoints. A nil repository answers 503.
func NewProfileHandler(profileRepo repositories.ProfileRepository, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileRepo: profileRepo,
		log:         logger.With(log),
		now:         time.Now,
	}
}

// HandleGet handles GET /users/:userId/profile
func (h *ProfileHandler) HandleGet(c *fiber.Ctx) error {
	if h.profileRepo == nil {
		return profilesDisabled(c)
	}

	userID := c.Params("userId")
	if !validUserID(userID) {
		return invalidUserID(c)
	}

	profile, err := h.profileRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Profile not found",
			})
		}
		return writeError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
	})
}

// HandleUpdate handles PUT /users/:userId/profile. Only fields present in the
// body are changed.
func (h *ProfileHandler) HandleUpdate(c *fiber.Ctx) error {
	if h.profileRepo == nil {
		return profilesDisabled(c)
	}

	userID := c.Params("userId")
	if !validUserID(userID) {
		return invalidUserID(c)
	}

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if req.Email == nil && req.DisplayName == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	profile := &models.UserProfile{
		UserID:    userID,
		UpdatedAt: h.now().UTC(),
	}
	columns := []string{"updated_at"}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid email address",
				})
			}
		}
		profile.Email = email
		columns = append(columns, "email")
	}
	if req.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*req.DisplayName)
		columns = append(columns, "display_name")
	}

	if err := h.profileRepo.Upsert(profile, columns); err != nil {
		return writeError(c, h.log, err)
	}

	merged, err := h.profileRepo.FindByUserID(userID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": merged,
	})
}

func profilesDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "User profiles are not enabled",
	})
}
