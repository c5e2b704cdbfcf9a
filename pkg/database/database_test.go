package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username"}

	constraint, ok := UniqueViolation(fmt.Errorf("insert user: %w", dup))
	assert.True(t, ok)
	assert.Equal(t, "idx_users_username", constraint)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("connection refused"))
	assert.False(t, ok)
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"ERROR":  logger.Error,
		"info":   logger.Info,
		"":       logger.Warn,
		"loud":   logger.Warn,
	}
	for value, want := range tests {
		t.Setenv("DB_LOG_LEVEL", value)
		assert.Equal(t, want, LogLevelFromEnv(), value)
	}
}
