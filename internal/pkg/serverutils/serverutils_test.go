package serverutils

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(ctx context.Context, token string) bool {
	return r[token]
}

func newApp(revoked RevocationChecker, allowQuery bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/me", NewJwtMiddleware(secret, revoked, allowQuery), func(ctx *fiber.Ctx) error {
		id, err := CurrentUserID(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(id.String() + "|" + CurrentToken(ctx))
	})
	return app
}

func TestIssueAndParseToken(t *testing.T) {
	id := uuid.New()
	token, expiresAt, err := IssueToken(secret, id, "user", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestParseToken_Rejects(t *testing.T) {
	expired, _, err := IssueToken(secret, uuid.New(), "user", -time.Minute)
	require.NoError(t, err)
	foreign, _, err := IssueToken("other", uuid.New(), "user", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":     expired,
		"bad secret":  foreign,
		"not a token": "abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(secret, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	id := uuid.New()
	token, _, err := IssueToken(secret, id, "user", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		query      string
		allowQuery bool
		revoked    revokedSet
		wantStatus int
	}{
		{name: "valid header", header: "Bearer " + token, wantStatus: fiber.StatusOK},
		{name: "missing", wantStatus: fiber.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", wantStatus: fiber.StatusUnauthorized},
		{name: "revoked", header: "Bearer " + token, revoked: revokedSet{token: true}, wantStatus: fiber.StatusUnauthorized},
		{name: "query when allowed", query: token, allowQuery: true, wantStatus: fiber.StatusOK},
		{name: "query when not allowed", query: token, wantStatus: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := newApp(tt.revoked, tt.allowQuery).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			if tt.wantStatus == fiber.StatusOK {
				assert.Equal(t, id.String()+"|"+token, string(body))
				return
			}
			var envelope map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &envelope))
			assert.Equal(t, false, envelope["success"])
			assert.EqualValues(t, fiber.StatusUnauthorized, envelope["code"])
		})
	}
}

func TestErrorHandler_UsesEnvelope(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	resp, err := app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, false, envelope["success"])
}

func TestValidateStruct(t *testing.T) {
	type signup struct {
		Email    string `validate:"required,email"`
		Username string `validate:"required,min=3"`
	}

	assert.NoError(t, ValidateStruct(signup{Email: "a@b.co", Username: "glow"}))

	err := ValidateStruct(signup{Email: "nope", Username: "ab"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email format")
	assert.Contains(t, err.Error(), "username must be at least 3 characters")
}
