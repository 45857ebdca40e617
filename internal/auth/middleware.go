package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nile-labs/registration-service/internal/domain"
	apperrors "github.com/nile-labs/registration-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as decoded from token
// claims. No store lookup happens here; the token is the sole source.
type Principal struct {
	UserID int64
	Name   string
	Email  string
	Role   domain.Role
}

// Middleware validates bearer tokens and stores the principal in the
// request context.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs the token-verifying middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid token subject")
	}

	c.Locals(principalKey, &Principal{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
