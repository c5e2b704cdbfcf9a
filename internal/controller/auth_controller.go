// FILE: internal/controller/auth_controller.go
package controller

import (
	"errors"

	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/pkg/serverutils"
	"glowgirl-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service     service.IAuthService
	glowService service.IGlowService
	requireAuth fiber.Handler
}

func NewAuthController(service service.IAuthService, glowService service.IGlowService, requireAuth fiber.Handler) IAuthController {
	return &authController{service: service, glowService: glowService, requireAuth: requireAuth}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Get("/me", c.requireAuth, c.Me)
	h.Post("/logout", c.requireAuth, c.Logout)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.Register(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) || errors.Is(err, service.ErrUsernameTaken) {
			return serverutils.ErrorResponse(ctx, fiber.StatusConflict, err.Error())
		}
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Registration failed")
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusCreated, "User registered successfully", res)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.Login(ctx.UserContext(), &req, ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Login failed")
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Login successful", res)
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := c.service.Me(ctx.UserContext(), principal.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return serverutils.ErrorResponse(ctx, fiber.StatusNotFound, "User not found")
		}
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Failed to load user")
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", user)
}

// Logout revokes the token and tears down the user's tea session.
func (c *authController) Logout(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	if c.glowService != nil {
		c.glowService.EndSession(ctx.UserContext(), principal.UserID)
	}
	if err := c.service.Logout(ctx.UserContext(), principal); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Logout failed")
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Logged out successfully", nil)
}
