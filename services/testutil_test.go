package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quizdeck/models"
)

// newTestDB opens a fresh in-memory database per test. TranslateError is on,
// matching production, so unique-index violations surface as
// gorm.ErrDuplicatedKey.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Quiz{}, &models.Question{}))
	return db
}

// disabledMail returns a notifier with no transport configured; every send is
// a no-op, which is exactly what tests want.
func disabledMail(t *testing.T) *MailService {
	t.Helper()
	return &MailService{}
}

func createTestUser(t *testing.T, db *gorm.DB, username, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    email,
		Password: "$2a$10$fake.hash.for.tests.only",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
