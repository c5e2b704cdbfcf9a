package controller

import (
	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// principalFrom reads the caller stored by the JWT middleware.
func principalFrom(ctx *fiber.Ctx) (dto.Principal, error) {
	userID, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return dto.Principal{}, err
	}
	return dto.Principal{
		UserID:    userID,
		Token:     serverutils.CurrentToken(ctx),
		ExpiresAt: serverutils.CurrentTokenExpiry(ctx),
	}, nil
}
