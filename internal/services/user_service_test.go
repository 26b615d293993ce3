package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acortes/librarium-be/internal/apperr"
)

func verificationToken(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	var token sql.NullString
	require.NoError(t, db.QueryRow("SELECT verification_token FROM users WHERE email = ?", email).Scan(&token))
	return token.String
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	user, err := svc.Register("alice", "alice@x.com", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)

	// stored credential is a hash, not the password
	var hash string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&hash))
	assert.NotEqual(t, "pw1", hash)
	assert.NotEmpty(t, verificationToken(t, db, "alice@x.com"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	_, err := svc.Register("alice", "alice@x.com", "pw1")
	require.NoError(t, err)

	_, err = svc.Register("alice2", "alice@x.com", "pw2")
	require.ErrorIs(t, err, apperr.ErrConflict)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRegisterMissingFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	_, err := svc.Register("", "alice@x.com", "pw1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Register("alice", "alice@x.com", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestVerifyConsumesToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	_, err := svc.Register("alice", "alice@x.com", "pw1")
	require.NoError(t, err)
	token := verificationToken(t, db, "alice@x.com")

	require.NoError(t, svc.Verify(token))

	var verified int
	require.NoError(t, db.QueryRow("SELECT email_verified FROM users WHERE email = ?", "alice@x.com").Scan(&verified))
	assert.Equal(t, 1, verified)
	assert.Empty(t, verificationToken(t, db, "alice@x.com"))

	// single use: the same token never matches again
	err = svc.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	_, err := svc.Register("alice", "alice@x.com", "pw1")
	require.NoError(t, err)
	token := verificationToken(t, db, "alice@x.com")

	_, err = db.Exec("UPDATE users SET verification_expires = ? WHERE email = ?",
		time.Now().Add(-time.Hour).UTC(), "alice@x.com")
	require.NoError(t, err)

	err = svc.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestVerifyUnknownToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	err := svc.Verify("deadbeef")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	err = svc.Verify("")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	_, err := svc.Register("alice", "alice@x.com", "pw1")
	require.NoError(t, err)

	user, err := svc.Authenticate("alice@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	// username works as the identifier too
	_, err = svc.Authenticate("alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Authenticate("alice@x.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = svc.Authenticate("nobody@x.com", "pw1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthenticateRequireVerified(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})
	svc.RequireVerified = true

	_, err := svc.Register("alice", "alice@x.com", "pw1")
	require.NoError(t, err)

	// unverified account is refused with the same message as a bad password
	_, err = svc.Authenticate("alice@x.com", "pw1")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	wrongPw := svcAuthErr(t, svc, "alice@x.com", "wrong")
	assert.Equal(t, wrongPw, err.Error())

	require.NoError(t, svc.Verify(verificationToken(t, db, "alice@x.com")))
	_, err = svc.Authenticate("alice@x.com", "pw1")
	assert.NoError(t, err)
}

func svcAuthErr(t *testing.T, svc *UserService, identifier, password string) string {
	t.Helper()
	_, err := svc.Authenticate(identifier, password)
	require.Error(t, err)
	return err.Error()
}

func TestEnsureAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	require.NoError(t, svc.EnsureAdmin("admin", "admin@digitallibrary.local", "Admin123!"))
	require.NoError(t, svc.EnsureAdmin("admin", "admin@digitallibrary.local", "Admin123!"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)

	// the admin is pre-verified and can log in immediately
	user, err := svc.Authenticate("admin", "Admin123!")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
}

func TestPurgeExpiredTokens(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NopEmailSender{})

	_, err := svc.Register("fresh", "fresh@x.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register("stale", "stale@x.com", "pw")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE users SET verification_expires = ? WHERE email = ?",
		time.Now().Add(-time.Hour).UTC(), "stale@x.com")
	require.NoError(t, err)

	purged, err := svc.PurgeExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	assert.Empty(t, verificationToken(t, db, "stale@x.com"))
	assert.NotEmpty(t, verificationToken(t, db, "fresh@x.com"))
}
