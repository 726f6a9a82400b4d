package auth

import (
	"errors"
	"time"

	authutil "github.com/acadfolio/portfolio-api/utils/auth"
	"github.com/acadfolio/portfolio-api/utils/middleware"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RefreshRequest carries the refresh token when it is not sent as a cookie
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// refreshTokenFrom pulls the refresh token from the cookie, falling back to
// the JSON body.
func refreshTokenFrom(c *fiber.Ctx) string {
	if t := c.Cookies(middleware.RefreshTokenCookie); t != "" {
		return t
	}
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

// RefreshToken exchanges a valid, unrevoked refresh token for a new access
// token carrying the user's current role.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	presented := refreshTokenFrom(c)

	access, _, err := h.auth.Refresh(c.Context(), presented)
	if err != nil {
		switch {
		case errors.Is(err, authutil.ErrTokenMissing):
			return response.Unauthorized(c, "Refresh token missing")
		case errors.Is(err, authutil.ErrTokenRevoked):
			return response.Unauthorized(c, "Refresh token revoked")
		case errors.Is(err, authutil.ErrUserNotFound):
			return response.Unauthorized(c, "User not found")
		case errors.Is(err, authutil.ErrInvalidToken):
			return response.Unauthorized(c, "Invalid or expired refresh token")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	expiresIn := int(h.auth.AccessTTL().Seconds())

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    access,
		Expires:  time.Now().Add(time.Duration(expiresIn) * time.Second),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})

	return response.Success(c, RefreshResponse{
		AccessToken: access,
		ExpiresIn:   expiresIn,
	})
}

// Logout revokes the presented refresh token and clears the session cookies.
// Calling it again with the same token is not an error.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	presented := refreshTokenFrom(c)

	var actorID *uint
	actorRole := ""
	if user, ok := middleware.GetUser(c); ok {
		actorID = &user.ID
		actorRole = user.Role
	}

	if err := h.auth.Logout(c.Context(), presented, actorID, actorRole, c.IP()); err != nil {
		return response.InternalServerError(c, "Failed to log out")
	}

	clearSessionCookies(c)

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
