package auth

import (
	"errors"

	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/utils/middleware"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UpdateProfileRequest is the allow-listed set of profile fields a user may
// change about themselves. Email, role and status are not updatable here.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	Grade       *string `json:"grade" validate:"omitempty,max=100"`
	Speciality  *string `json:"speciality" validate:"omitempty,max=200"`
	Diploma     *string `json:"diploma" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// Me returns the authenticated user with their profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var profile model.Profile
	err := h.db.Where("user_id = ?", user.ID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.InternalServerError(c, "Failed to load profile")
	}

	return response.Success(c, fiber.Map{
		"user":    toUserResponse(user),
		"profile": profile,
	})
}

// UpdateProfile updates the authenticated user's profile. Only fields present
// in the request change; everything else keeps its stored value.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var profile model.Profile
	err := h.db.Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = model.Profile{UserID: user.ID}
	} else if err != nil {
		return response.InternalServerError(c, "Failed to load profile")
	}

	if req.FirstName != nil {
		profile.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		profile.LastName = *req.LastName
	}
	if req.Grade != nil {
		profile.Grade = *req.Grade
	}
	if req.Speciality != nil {
		profile.Speciality = *req.Speciality
	}
	if req.Diploma != nil {
		profile.Diploma = *req.Diploma
	}
	if req.Description != nil {
		profile.Description = *req.Description
	}

	if err := h.db.Save(&profile).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated", profile)
}
