package specification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type row struct {
	Id uuid.UUID
}

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost", PreferSimpleProtocol: true}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open dry run db: %v", err)
	}
	return db
}

func render(db *gorm.DB, specs ...Specification) string {
	query := db.Table("rows")
	for _, s := range specs {
		query = s.Apply(query)
	}
	stmt := query.Find(&[]row{}).Statement
	return stmt.SQL.String()
}

func TestSpecifications_SQL(t *testing.T) {
	db := dryRun(t)
	id := uuid.New()

	tests := []struct {
		name  string
		specs []Specification
		want  []string
	}{
		{name: "by email", specs: []Specification{ByEmail{Email: " Glow@Example.com "}}, want: []string{"email = $1"}},
		{name: "owned and ordered", specs: []Specification{UserOwnedBy{UserID: id}, OrderBy{Field: "finished_at", Desc: true}}, want: []string{"user_id = $1", "ORDER BY finished_at DESC"}},
		{name: "paged", specs: []Specification{Pagination{Limit: 10, Offset: 20}}, want: []string{"LIMIT $1", "OFFSET $2"}},
		{name: "status", specs: []Specification{ByGlowStatus{Status: "completed"}}, want: []string{"status = $1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := render(db, tt.specs...)
			for _, fragment := range tt.want {
				assert.Contains(t, sql, fragment)
			}
		})
	}
}

func TestByEmail_Normalizes(t *testing.T) {
	query := ByEmail{Email: " Glow@Example.com "}.Apply(dryRun(t).Table("users")).Find(&[]row{})
	assert.Equal(t, []interface{}{"glow@example.com"}, query.Statement.Vars)
}
