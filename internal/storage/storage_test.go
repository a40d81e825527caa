package storage

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), "test-signing-key", ttl)
	require.NoError(t, err)
	return store
}

func signedParts(t *testing.T, signed string) (name string, expires int64, sig string) {
	t.Helper()

	u, err := url.Parse(signed)
	require.NoError(t, err)

	parts := strings.Split(u.Path, "/")
	name = parts[len(parts)-1]
	expires, err = strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	return name, expires, u.Query().Get("sig")
}

func TestSaveAndVerify(t *testing.T) {
	store := setupStore(t, 15*time.Minute)

	name, err := store.Save("chart.png", strings.NewReader("fake image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	signed, expiresAt := store.SignedURL(name)
	assert.True(t, expiresAt.After(time.Now()))

	gotName, expires, sig := signedParts(t, signed)
	assert.Equal(t, name, gotName)
	assert.NoError(t, store.Verify(gotName, expires, sig))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	store := setupStore(t, 15*time.Minute)

	name, err := store.Save("chart.png", strings.NewReader("bytes"))
	require.NoError(t, err)

	signed, _ := store.SignedURL(name)
	gotName, expires, _ := signedParts(t, signed)

	assert.ErrorIs(t, store.Verify(gotName, expires, "deadbeef"), ErrBadSignature)

	// A signature for one file does not open another
	other, err := store.Save("other.png", strings.NewReader("bytes"))
	require.NoError(t, err)
	_, _, sig := signedParts(t, signed)
	assert.ErrorIs(t, store.Verify(other, expires, sig), ErrBadSignature)
}

func TestVerifyRejectsExpired(t *testing.T) {
	store := setupStore(t, -time.Minute)

	name, err := store.Save("chart.png", strings.NewReader("bytes"))
	require.NoError(t, err)

	signed, _ := store.SignedURL(name)
	gotName, expires, sig := signedParts(t, signed)
	assert.ErrorIs(t, store.Verify(gotName, expires, sig), ErrBadSignature)
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store := setupStore(t, 15*time.Minute)

	_, err := store.Save("malware.exe", strings.NewReader("bytes"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPathRejectsTraversal(t *testing.T) {
	store := setupStore(t, 15*time.Minute)

	_, err := store.Path("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
}
