package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyrticx/tradesmart-api/internal/database"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	return NewService(db, "test-secret", time.Hour)
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := setupService(t)

	token, err := svc.SignUp("Trader@Example.com", "correct-horse-battery", "Test Trader")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "trader@example.com", token.User.Email, "emails are normalized")
	assert.Empty(t, token.User.PasswordHash, "hash never leaves the service")

	// Email lookup is case-insensitive via normalization
	signIn, err := svc.SignIn("trader@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, token.User.UserID, signIn.User.UserID)
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := setupService(t)

	_, err := svc.SignUp("trader@example.com", "correct-horse-battery", "")
	require.NoError(t, err)

	_, err = svc.SignUp("trader@example.com", "another-password", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := setupService(t)

	_, err := svc.SignUp("trader@example.com", "correct-horse-battery", "")
	require.NoError(t, err)

	_, err = svc.SignIn("trader@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn("nobody@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateResolvesUserID(t *testing.T) {
	svc := setupService(t)

	token, err := svc.SignUp("trader@example.com", "correct-horse-battery", "")
	require.NoError(t, err)

	userID, err := svc.Authenticate(token.Token)
	require.NoError(t, err)
	assert.Equal(t, token.User.UserID, userID)

	_, err = svc.Authenticate("not-a-token")
	assert.Error(t, err)
}

func TestSignOutRevokesToken(t *testing.T) {
	svc := setupService(t)

	token, err := svc.SignUp("trader@example.com", "correct-horse-battery", "")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(token.Token))

	_, err = svc.ValidateToken(token.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// A fresh sign-in issues a new token id, unaffected by the revocation
	fresh, err := svc.SignIn("trader@example.com", "correct-horse-battery")
	require.NoError(t, err)
	_, err = svc.ValidateToken(fresh.Token)
	assert.NoError(t, err)
}

func TestCurrentUser(t *testing.T) {
	svc := setupService(t)

	token, err := svc.SignUp("trader@example.com", "correct-horse-battery", "Test Trader")
	require.NoError(t, err)

	user, err := svc.CurrentUser(token.User.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Test Trader", user.FullName)

	_, err = svc.CurrentUser("missing-user")
	assert.Error(t, err)
}
