package accounts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyrticx/tradesmart-api/internal/database"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	return NewService(db)
}

func TestCreateAccountDefaults(t *testing.T) {
	svc := setupService(t)

	account, err := svc.CreateAccount("user-1", NewAccount{
		Name:                  "Swing",
		AccountSize:           100000,
		DefaultRiskPercentage: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", account.Currency)
	assert.NotEmpty(t, account.AccountID)
}

func TestAccountNameUniquePerUser(t *testing.T) {
	svc := setupService(t)

	_, err := svc.CreateAccount("user-1", NewAccount{Name: "Swing"})
	require.NoError(t, err)

	_, err = svc.CreateAccount("user-1", NewAccount{Name: "Swing"})
	assert.ErrorIs(t, err, ErrNameTaken)

	// Another user can reuse the name
	_, err = svc.CreateAccount("user-2", NewAccount{Name: "Swing"})
	assert.NoError(t, err)
}

func TestPreferenceUpsert(t *testing.T) {
	svc := setupService(t)

	pref, err := svc.PutPreference("user-1", "dashboard_columns", `{"columns":["symbol","pl"]}`)
	require.NoError(t, err)
	assert.Equal(t, PreferenceSchemaVersion, pref.SchemaVersion)

	pref, err = svc.PutPreference("user-1", "dashboard_columns", `{"columns":["symbol"]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"columns":["symbol"]}`, pref.Value)

	got, err := svc.GetPreference("user-1", "dashboard_columns")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"columns":["symbol"]}`, got.Value)

	missing, err := svc.GetPreference("user-1", "unset-key")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
