package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/models"
)

// verificationTokenTTL is how long a registration verification link stays
// valid.
const verificationTokenTTL = 24 * time.Hour

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(username, email, password string) (models.User, error)
	Verify(token string) error
	Authenticate(identifier, password string) (models.User, error)
	GetUserByID(id int64) (models.User, error)
	EnsureAdmin(username, email, password string) error
	PurgeExpiredTokens() (int64, error)
}

// UserService provides business logic for registration, verification and
// login. RequireVerified optionally refuses unverified accounts at login;
// the refusal is indistinguishable from a wrong password so the flag opens
// no enumeration channel.
type UserService struct {
	db              *sql.DB
	mailer          EmailSender
	RequireVerified bool
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, mailer EmailSender) *UserService {
	return &UserService{db: db, mailer: mailer}
}

// Register creates a new unverified user and triggers the verification mail.
// Mail delivery is best-effort: registration succeeds even when the relay
// is down.
func (s *UserService) Register(username, email, password string) (models.User, error) {
	if username == "" || email == "" || password == "" {
		return models.User{}, apperr.E(apperr.ErrValidation, "Missing fields")
	}

	var existingID int64
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&existingID)
	if err == nil {
		return models.User{}, apperr.E(apperr.ErrConflict, "Email already registered")
	}
	if err != sql.ErrNoRows {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return models.User{}, err
	}
	expires := time.Now().Add(verificationTokenTTL).UTC()

	res, err := s.db.Exec(
		"INSERT INTO users(username, email, password_hash, email_verified, verification_token, verification_expires, created_at) VALUES(?, ?, ?, 0, ?, ?, ?)",
		username, email, string(hashedPassword), token, expires, time.Now().UTC(),
	)
	if err != nil {
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	go func() {
		if err := s.mailer.SendVerificationEmail(email, username, token); err != nil {
			log.Warn().Err(err).Str("email", email).Msg("Verification email failed")
		}
	}()

	return models.User{ID: id, Username: username, Email: email}, nil
}

// Verify consumes a verification token. A token matches at most once: on
// success it is cleared together with its expiry so replays always fail.
func (s *UserService) Verify(token string) error {
	if token == "" {
		return apperr.E(apperr.ErrValidation, "Missing token")
	}

	var id int64
	var expires time.Time
	err := s.db.QueryRow(
		"SELECT id, verification_expires FROM users WHERE verification_token = ? AND email_verified = 0",
		token,
	).Scan(&id, &expires)
	if err == sql.ErrNoRows {
		return apperr.E(apperr.ErrInvalidToken, "Invalid or already used token")
	}
	if err != nil {
		return err
	}
	if time.Now().After(expires) {
		return apperr.E(apperr.ErrInvalidToken, "Token expired")
	}

	_, err = s.db.Exec(
		"UPDATE users SET email_verified = 1, verification_token = NULL, verification_expires = NULL WHERE id = ?",
		id,
	)
	return err
}

// Authenticate verifies a user's credentials. The identifier may be an email
// address or a username. All failure modes surface the same message.
func (s *UserService) Authenticate(identifier, password string) (models.User, error) {
	var user models.User
	var verified int
	row := s.db.QueryRow(
		"SELECT id, username, email, password_hash, email_verified FROM users WHERE email = ? OR username = ?",
		identifier, identifier,
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &verified)
	if err == sql.ErrNoRows {
		return models.User{}, apperr.E(apperr.ErrInvalidCredentials, "Invalid credentials")
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.E(apperr.ErrInvalidCredentials, "Invalid credentials")
	}

	user.EmailVerified = verified == 1
	if s.RequireVerified && !user.EmailVerified {
		return models.User{}, apperr.E(apperr.ErrInvalidCredentials, "Invalid credentials")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id int64) (models.User, error) {
	var user models.User
	var verified int
	row := s.db.QueryRow("SELECT id, username, email, email_verified, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &verified, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, apperr.E(apperr.ErrNotFound, "User not found")
	}
	if err != nil {
		return models.User{}, err
	}
	user.EmailVerified = verified == 1
	return user, nil
}

// EnsureAdmin creates the sample admin account on first startup. The admin
// is created pre-verified so it can log in without a mail round trip.
func (s *UserService) EnsureAdmin(username, email, password string) error {
	var id int64
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ? OR username = ?", email, username).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO users(username, email, password_hash, email_verified, created_at) VALUES(?, ?, ?, 1, ?)",
		username, email, string(hashedPassword), time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	log.Info().Str("username", username).Str("email", email).Msg("Sample admin created")
	return nil
}

// PurgeExpiredTokens clears verification tokens that can no longer be
// redeemed, so dead secrets don't accumulate in the store. Returns the
// number of rows touched.
func (s *UserService) PurgeExpiredTokens() (int64, error) {
	res, err := s.db.Exec(
		"UPDATE users SET verification_token = NULL, verification_expires = NULL WHERE email_verified = 0 AND verification_token IS NOT NULL AND verification_expires < ?",
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// newVerificationToken returns a 256-bit random token, hex encoded.
func newVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
