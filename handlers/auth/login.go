package auth

import (
	"errors"

	"github.com/acadfolio/portfolio-api/services"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	ip := c.IP()

	user, pair, err := h.auth.Login(c.Context(), req.Email, req.Password, ip)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			if h.bruteForceProtection != nil {
				h.bruteForceProtection.RecordFailure(c, ip)
			}
			// One message for unknown email and wrong password.
			return response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, services.ErrAccountInactive):
			return response.Forbidden(c, "Account disabled")
		default:
			return response.InternalServerError(c, "Failed to log in")
		}
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccess(c, ip)
	}

	setSessionCookies(c, pair, h.auth.RefreshTTL())

	return response.Success(c, LoginResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}
