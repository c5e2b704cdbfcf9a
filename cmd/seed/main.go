package main

import (
	"context"
	"log"
	"os"
	"time"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/repository/specification"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@glowgirl.app"
	demoUsername = "glowdemo"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	password := os.Getenv("SEED_DEMO_PASSWORD")
	if password == "" {
		log.Fatal("Error: SEED_DEMO_PASSWORD is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	log.Println("Seeding demo user...")

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: demoEmail})
	if err != nil {
		log.Fatalf("Error: Failed to look up demo user: %v", err)
	}
	if existing != nil {
		log.Printf("Demo user already exists (%s), skipping", existing.Id)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash password: %v", err)
	}

	now := time.Now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        demoEmail,
		Username:     demoUsername,
		PasswordHash: string(hash),
		Role:         entity.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uow.Begin(ctx); err != nil {
		log.Fatalf("Error: Failed to begin transaction: %v", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		log.Fatalf("Error: Failed to create demo user: %v", err)
	}

	// One finished session so the history screen is not empty.
	history := &entity.GlowSession{
		Id:         uuid.New(),
		UserId:     user.Id,
		Status:     entity.GlowSessionStatusCompleted,
		TurnCount:  5,
		FinishedAt: now.Add(-24 * time.Hour),
		Analysis: &entity.AnalysisResult{
			Mood:             "excited",
			SituationSummary: "First date after a long break",
			Vibe:             "soft glam with a flirty edge",
			ColorPalette:     []string{"rose", "champagne", "ivory"},
			StyleDirection:   "romantic",
		},
		Recommendations: []entity.Recommendation{
			{Id: uuid.New(), Category: entity.CategoryClothing, Title: "Silk slip dress", Description: "Champagne bias-cut midi"},
			{Id: uuid.New(), Category: entity.CategoryMakeup, Title: "Rosy flush", Description: "Cream blush high on the cheeks"},
			{Id: uuid.New(), Category: entity.CategoryHaircare, Title: "Loose waves", Description: "Brushed-out curls with shine spray"},
		},
	}
	if err := uow.GlowSessionRepository().Create(ctx, history); err != nil {
		log.Fatalf("Error: Failed to create demo session: %v", err)
	}

	if err := uow.Commit(); err != nil {
		log.Fatalf("Error: Failed to commit seed: %v", err)
	}

	log.Printf("Seeded demo user %s (%s)", demoUsername, user.Id)
}
