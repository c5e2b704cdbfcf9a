package integration

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/repository/contract"
	"glowgirl-be/internal/repository/specification"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/pkg/database"
	"glowgirl-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRepositories(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(ctx)

	suffix := uuid.NewString()[:8]
	user := &entity.User{
		Id:           uuid.New(),
		Email:        "integration-" + suffix + "@example.com",
		Username:     "integration_" + suffix,
		PasswordHash: "not-a-real-hash",
		Role:         entity.UserRoleUser,
	}

	t.Run("User create and duplicate", func(t *testing.T) {
		require.NoError(t, uow.UserRepository().Create(ctx, user))

		found, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: user.Email})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.Id, found.Id)

		dup := *user
		dup.Id = uuid.New()
		dup.Email = "other-" + suffix + "@example.com"
		err = uow.UserRepository().Create(ctx, &dup)

		var dupErr *contract.DuplicateError
		require.True(t, errors.As(err, &dupErr))
		assert.Contains(t, dupErr.Constraint, "username")
	})

	t.Run("Glow session history", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			require.NoError(t, uow.GlowSessionRepository().Create(ctx, &entity.GlowSession{
				Id:         uuid.New(),
				UserId:     user.Id,
				Status:     entity.GlowSessionStatusCompleted,
				TurnCount:  3,
				FinishedAt: time.Now().Add(time.Duration(i) * time.Minute),
				Analysis: &entity.AnalysisResult{
					Mood:         "hopeful",
					ColorPalette: []string{"blush", "cream"},
				},
			}))
		}

		total, err := uow.GlowSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: user.Id})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)

		items, err := uow.GlowSessionRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: user.Id},
			specification.OrderBy{Field: "finished_at", Desc: true},
			specification.Pagination{Limit: 1},
		)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Analysis)
		assert.Equal(t, []string{"blush", "cream"}, items[0].Analysis.ColorPalette)
	})

	t.Run("Conversation embedding", func(t *testing.T) {
		values := make([]float32, embedding.Dimensions)
		values[0] = 1
		sessionID := uuid.New()

		require.NoError(t, uow.ConversationEmbeddingRepository().Create(ctx, &entity.ConversationEmbedding{
			SessionId:      sessionID,
			UserId:         user.Id,
			Document:       "Them: I got the promotion!",
			EmbeddingValue: values,
			TurnCount:      2,
		}))

		stored, err := uow.ConversationEmbeddingRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionID})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Len(t, stored.EmbeddingValue, embedding.Dimensions)
	})
}
