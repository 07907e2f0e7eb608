package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

func testIssuer() *Issuer {
	return NewIssuer(testSecret, 15*time.Minute, 168*time.Hour)
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	issuer := testIssuer()

	token, expiry, err := issuer.IssueAccessToken(42, RoleAdmin)
	require.NoError(t, err)
	assert.True(t, expiry.After(time.Now()))

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestRefreshTokenCarriesNoRole(t *testing.T) {
	issuer := testIssuer()

	token, jti, _, err := issuer.IssueRefreshToken(42)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Empty(t, claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := testIssuer()
	issued := time.Now().UTC()
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.IssueAccessToken(42, RoleUser)
	require.NoError(t, err)

	// Just before expiry it still verifies.
	issuer.now = func() time.Time { return issued.Add(15*time.Minute - time.Second) }
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	// At and after expiry it fails with the expired kind.
	issuer.now = func() time.Time { return issued.Add(15*time.Minute + time.Second) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	other := NewIssuer("another-test-secret-with-32-bytes!!!", 15*time.Minute, 168*time.Hour)
	token, _, err := other.IssueAccessToken(42, RoleUser)
	require.NoError(t, err)

	issuer := testIssuer()
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecretExpiredIsStillInvalid(t *testing.T) {
	// A tampered token must never surface as merely expired, even when
	// its embedded expiry has also passed.
	other := NewIssuer("another-test-secret-with-32-bytes!!!", 15*time.Minute, 168*time.Hour)
	issued := time.Now().UTC().Add(-time.Hour)
	other.now = func() time.Time { return issued }
	token, _, err := other.IssueAccessToken(42, RoleUser)
	require.NoError(t, err)

	issuer := testIssuer()
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := testIssuer()

	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}
