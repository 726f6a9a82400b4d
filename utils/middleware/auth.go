package middleware

import (
	"strings"

	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/services"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AccessTokenCookie and RefreshTokenCookie are the browser-session transport
// for the token pair; the Authorization header is the API transport. The
// verifier treats both identically.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// AuthMiddleware handles token verification and role enforcement
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	audits     *services.AuditService
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		audits:     services.NewAuditService(db),
		db:         db,
	}
}

// ExtractToken pulls the access token from the Authorization header, falling
// back to the access_token cookie.
func ExtractToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(AccessTokenCookie)
}

// Required rejects the request unless a valid access token is presented. The
// user row is loaded fresh on every request, so role and status changes take
// effect immediately regardless of what the token claims say.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		if claims.TokenType != auth.TokenTypeAccess {
			return response.Unauthorized(c, "Invalid token type")
		}

		var user model.User
		if err := m.db.First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.Unauthorized(c, "User not found")
			}
			return response.InternalServerError(c, "Failed to load user")
		}

		if user.Status != model.StatusActive {
			return response.Forbidden(c, "Account disabled")
		}

		// The row's role is authoritative; the claim's role is never trusted
		// for authorization.
		c.Locals("user", &user)
		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}

// Optional resolves the user when a valid token is present and silently
// continues otherwise. Used by public pages that adapt to a signed-in viewer.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			return c.Next()
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			return c.Next()
		}

		var user model.User
		if err := m.db.First(&user, claims.UserID).Error; err != nil {
			return c.Next()
		}
		if user.Status != model.StatusActive {
			return c.Next()
		}

		c.Locals("user", &user)
		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}

// RequireRole enforces set membership against the stored role of the resolved
// user. A denial writes one audit row before the 403 goes out; if that write
// fails the denial becomes a 500, because an unrecorded denial defeats the
// audit trail. Requests with no resolved user get a plain 401 and no audit
// row, since there is no actor to attribute it to.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}

		if !allowed[user.Role] {
			entry := services.AuditEntry{
				ActorID:     &user.ID,
				ActorRole:   user.Role,
				Description: "unauthorized access attempt to " + c.Method() + " " + c.Path(),
				IP:          c.IP(),
			}
			if err := m.audits.Record(c.Context(), entry); err != nil {
				return response.InternalServerError(c, "Failed to record audit entry")
			}
			return response.Forbidden(c, "Insufficient permissions")
		}

		return c.Next()
	}
}

// GetUser extracts the resolved user from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetUserID extracts the resolved user's id from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserRole extracts the resolved user's role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role := c.Locals("user_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}
