// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	LocalUserID    = "user_id"
	LocalToken     = "token"
	LocalExpiresAt = "token_expires_at"
)

// RevocationChecker reports tokens that were signed out before they expired.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// NewJwtMiddleware validates the bearer token and stores user_id, token and expiry
// in ctx.Locals. allowQuery also accepts ?token= for websocket upgrades.
func NewJwtMiddleware(secret string, revoked RevocationChecker, allowQuery bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := bearerToken(ctx.Get("Authorization"))
		if tokenStr == "" && allowQuery {
			tokenStr = ctx.Query("token")
		}
		if tokenStr == "" {
			return ErrorResponse(ctx, fiber.StatusUnauthorized, "Missing token")
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			return ErrorResponse(ctx, fiber.StatusUnauthorized, "Invalid token")
		}
		if revoked != nil && revoked.IsRevoked(ctx.UserContext(), tokenStr) {
			return ErrorResponse(ctx, fiber.StatusUnauthorized, "Token has been revoked")
		}

		ctx.Locals(LocalUserID, claims.UserID.String())
		ctx.Locals(LocalToken, tokenStr)
		ctx.Locals(LocalExpiresAt, claims.ExpiresAt)
		return ctx.Next()
	}
}

func bearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// CurrentUserID reads the user id stored by the middleware.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals(LocalUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func CurrentToken(ctx *fiber.Ctx) string {
	token, _ := ctx.Locals(LocalToken).(string)
	return token
}

func CurrentTokenExpiry(ctx *fiber.Ctx) time.Time {
	expiresAt, _ := ctx.Locals(LocalExpiresAt).(time.Time)
	return expiresAt
}
