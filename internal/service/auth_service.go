// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/pkg/logger"
	"glowgirl-be/internal/pkg/serverutils"
	"glowgirl-be/internal/repository/contract"
	"glowgirl-be/internal/repository/specification"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, userAgent string) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserDTO, error)
	Logout(ctx context.Context, principal dto.Principal) error
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	revoker        TokenRevoker
	eventPublisher events.Publisher
	cfg            AuthConfig
	logger         logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, revoker TokenRevoker, eventPublisher events.Publisher, cfg AuthConfig, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		revoker:        revoker,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		logger:         logger.OrNop(log),
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Uniqueness
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	// 2. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// 3. Save
	now := time.Now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         entity.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		var dup *contract.DuplicateError
		if errors.As(err, &dup) {
			if strings.Contains(dup.Constraint, "username") {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("AuthService", "User registered", map[string]interface{}{
		"user_id":  user.Id,
		"username": user.Username,
	})

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, userAgent string) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUserLogin, map[string]interface{}{
		"user_id": user.Id.String(),
		"device":  userAgent,
		"time":    time.Now().Format(time.RFC822),
	})
	return resp, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	userDTO := toUserDTO(user)
	return &userDTO, nil
}

// Logout revokes the presented token until it would have expired.
func (s *authService) Logout(ctx context.Context, principal dto.Principal) error {
	if principal.Token == "" {
		return nil
	}
	if s.revoker != nil {
		s.revoker.Revoke(ctx, principal.Token, principal.ExpiresAt)
	}

	s.publish(ctx, events.TypeUserLogout, map[string]interface{}{
		"user_id": principal.UserID.String(),
		"time":    time.Now().Format(time.RFC822),
	})
	return nil
}

func (s *authService) issue(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := serverutils.IssueToken(s.cfg.JWTSecret, user.Id, string(user.Role), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        toUserDTO(user),
	}, nil
}

func (s *authService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("AuthService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func toUserDTO(user *entity.User) dto.UserDTO {
	return dto.UserDTO{
		Id:        user.Id,
		Email:     user.Email,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
