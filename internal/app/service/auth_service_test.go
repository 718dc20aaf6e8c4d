package service

import (
	"testing"
	"time"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/avoronova/foodgram-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	authService := NewAuthService(userRepo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	return authService, testDB
}

func TestAuthService_Register(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t)

	user, tokens, err := authService.Register("new@example.com", "newcook", "Nina", "New", "password123")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := util.ValidateToken(tokens.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// Registration provisions the user's shopping cart.
	var cart model.ShoppingCart
	require.NoError(t, testDB.Where("user_id = ?", user.ID).First(&cart).Error)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("dup@example.com", "first", "F", "One", "password123")
	require.NoError(t, err)

	_, _, err = authService.Register("dup@example.com", "second", "S", "Two", "password123")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("first@example.com", "samename", "F", "One", "password123")
	require.NoError(t, err)

	_, _, err = authService.Register("second@example.com", "samename", "S", "Two", "password123")
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("login@example.com", "login", "L", "User", "password123")
	require.NoError(t, err)

	user, tokens, err := authService.Login("login@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = authService.Login("login@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = authService.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ChangePassword(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	user, _, err := authService.Register("pw@example.com", "pwuser", "P", "W", "oldpassword")
	require.NoError(t, err)

	err = authService.ChangePassword(user.ID, "wrongpassword", "newpassword")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = authService.ChangePassword(user.ID, "oldpassword", "newpassword")
	require.NoError(t, err)

	_, _, err = authService.Login("pw@example.com", "newpassword")
	assert.NoError(t, err)
	_, _, err = authService.Login("pw@example.com", "oldpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ListUsers(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("b@example.com", "bob", "B", "User", "password123")
	require.NoError(t, err)
	_, _, err = authService.Register("a@example.com", "alice", "A", "User", "password123")
	require.NoError(t, err)

	users, total, err := authService.ListUsers(10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}
