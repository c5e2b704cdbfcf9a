// FILE: internal/controller/glow_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/pkg/serverutils"
	"glowgirl-be/internal/service"
	ws "glowgirl-be/internal/websocket"
	"glowgirl-be/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IGlowController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SubmitMessage(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type glowController struct {
	service     service.IGlowService
	hub         *ws.Hub
	requireAuth fiber.Handler
	socketAuth  fiber.Handler
}

// NewGlowController wires the glow routes. socketAuth must accept the token as a
// query parameter, since browsers cannot set headers on websocket upgrades.
func NewGlowController(service service.IGlowService, hub *ws.Hub, requireAuth, socketAuth fiber.Handler) IGlowController {
	return &glowController{service: service, hub: hub, requireAuth: requireAuth, socketAuth: socketAuth}
}

func (c *glowController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/glow")
	h.Post("/session/start", c.requireAuth, c.Start)
	h.Post("/session/messages", c.requireAuth, c.SubmitMessage)
	h.Post("/session/reset", c.requireAuth, c.Reset)
	h.Get("/session", c.requireAuth, c.Current)
	h.Get("/history", c.requireAuth, c.History)
	if c.hub != nil {
		h.Get("/ws", c.socketAuth, c.upgrade, websocket.New(c.stream))
	}
}

func (c *glowController) Start(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	res, err := c.service.Start(ctx.UserContext(), principal)
	if err != nil {
		return glowError(ctx, err)
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Session started", res)
}

func (c *glowController) SubmitMessage(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SubmitMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.SubmitMessage(ctx.UserContext(), principal, &req)
	if err != nil {
		return glowError(ctx, err)
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Message sent", res)
}

func (c *glowController) Reset(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	res, err := c.service.Reset(ctx.UserContext(), principal)
	if err != nil {
		return glowError(ctx, err)
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Session reset", res)
}

func (c *glowController) Current(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	res, err := c.service.Current(ctx.UserContext(), principal)
	if err != nil {
		return glowError(ctx, err)
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}

func (c *glowController) History(ctx *fiber.Ctx) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "20"))

	res, err := c.service.History(ctx.UserContext(), principal.UserID, page, pageSize)
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Failed to load history")
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}

func (c *glowController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return ctx.Next()
}

// stream sends the current snapshot, then everything the hub delivers.
func (c *glowController) stream(conn *websocket.Conn) {
	rawUserID, _ := conn.Locals(serverutils.LocalUserID).(string)
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		conn.Close()
		return
	}
	token, _ := conn.Locals(serverutils.LocalToken).(string)
	expiresAt, _ := conn.Locals(serverutils.LocalExpiresAt).(time.Time)
	principal := dto.Principal{UserID: userID, Token: token, ExpiresAt: expiresAt}

	var initial [][]byte
	if snap, err := c.service.Current(context.Background(), principal); err == nil {
		if frame, err := json.Marshal(dto.SocketMessage{Type: dto.SocketTypeSessionSnapshot, Data: snap}); err == nil {
			initial = append(initial, frame)
		}
	}
	ws.ServeWs(c.hub, conn, userID, initial...)
}

// glowError maps session errors to HTTP statuses.
func glowError(ctx *fiber.Ctx, err error) error {
	var serviceErr *session.ServiceError
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, "Message cannot be empty")
	case errors.Is(err, session.ErrNotAuthenticated):
		return serverutils.ErrorResponse(ctx, fiber.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, session.ErrInvalidStateTransition), errors.Is(err, session.ErrStaleGeneration):
		return serverutils.ErrorResponse(ctx, fiber.StatusConflict, err.Error())
	case errors.Is(err, session.ErrClosed):
		return serverutils.ErrorResponse(ctx, fiber.StatusServiceUnavailable, "Session is shutting down")
	case errors.As(err, &serviceErr):
		return serverutils.ErrorResponse(ctx, fiber.StatusBadGateway, "Glow Girl is having trouble replying, try again")
	default:
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Something went wrong")
	}
}
