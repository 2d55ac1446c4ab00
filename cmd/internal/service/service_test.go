package service

import (
	"coachportal/cmd/internal/config"
	"coachportal/cmd/internal/domain/entity"
	"coachportal/cmd/internal/domain/store"
	"coachportal/cmd/internal/domain/store/repository"
	"coachportal/cmd/internal/utils/validators"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Init(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newValidate() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(validators.JSONFieldName)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
	return validate
}

func newProfiles(db *gorm.DB) *DefaultProfileService {
	return NewProfileService(repository.NewUserRepository(db))
}

func seedUser(t *testing.T, db *gorm.DB, id, email string) *entity.User {
	t.Helper()
	user := &entity.User{ID: id, Email: email, FullName: "Seeded"}
	require.NoError(t, repository.NewUserRepository(db).Create(user))
	return user
}

func mintToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func epoch(t *testing.T, rfc string) int64 {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, rfc)
	require.NoError(t, err)
	return ts.UnixMilli()
}
