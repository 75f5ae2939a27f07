// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, the platform
// capabilities and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/metrics"
	"github.com/DukeRupert/fetch/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Not configurable at runtime so it cannot be weakened by accident.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes in a session token,
	// hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// DefaultSessionDuration is used when UserServiceConfig leaves it unset.
	DefaultSessionDuration = 24 * time.Hour

	// MinSessionDuration and MaxSessionDuration bound the configured value.
	MinSessionDuration = 15 * time.Minute
	MaxSessionDuration = 30 * 24 * time.Hour

	// MinPasswordLength is the minimum password length (NIST SP 800-63B).
	MinPasswordLength = 8

	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72

	// MinUsernameLength and MaxUsernameLength count runes after
	// normalisation.
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// commonPasswords are rejected even when they satisfy the other rules.
var commonPasswords = map[string]bool{
	"password1":   true,
	"password12":  true,
	"password123": true,
	"qwerty123":   true,
	"letmein1":    true,
	"welcome1":    true,
	"admin123":    true,
	"iloveyou1":   true,
	"abc12345":    true,
	"monkey123":   true,
	"dragon123":   true,
	"sunshine1":   true,
}

// dummyHash is compared against when no user matches a login so that the
// response time does not reveal whether the email exists.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines user account and session operations.
type UserService interface {
	// Register creates a new account.
	// Returns a *domain.ValidationError for bad input and domain.ECONFLICT
	// if the email or username is taken.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login checks credentials and opens a session.
	// Returns domain.EUNAUTHORIZED for wrong credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetByID returns a user. Returns domain.ENOTFOUND if missing.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken resolves a raw session token to its user.
	// Returns domain.EUNAUTHORIZED if the token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// DeleteExpiredSessions removes expired sessions.
	DeleteExpiredSessions(ctx context.Context) error

	// SessionDuration is how long issued sessions last.
	SessionDuration() time.Duration
}

// UserServiceConfig holds tunables for the user service.
type UserServiceConfig struct {
	// SessionDuration is clamped to [MinSessionDuration, MaxSessionDuration].
	// Zero means DefaultSessionDuration.
	SessionDuration time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	queries         *repository.Queries
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewUserService creates a UserService backed by the sqlc queries.
func NewUserService(queries *repository.Queries, cfg UserServiceConfig, logger *slog.Logger) UserService {
	return &userService{
		queries:         queries,
		sessionDuration: normalizeSessionDuration(cfg.SessionDuration),
		logger:          logger,
	}
}

func (s *userService) SessionDuration() time.Duration {
	return s.sessionDuration
}

// Register validates input, checks uniqueness and stores a bcrypt hash of the
// password. Validation failures never reach the database.
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "UserService.Register"

	params.Username = strings.TrimSpace(params.Username)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	usernameKey, err := validateRegistration(op, params)
	if err != nil {
		return nil, err
	}

	_, err = s.queries.GetUserByEmail(ctx, params.Email)
	if err == nil {
		// Hash anyway so a duplicate email costs the same time as a new one.
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	_, err = s.queries.GetUserByUsernameKey(ctx, usernameKey)
	if err == nil {
		return nil, domain.Conflict(op, "Username already taken")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check username availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Username:     params.Username,
		UsernameKey:  usernameKey,
		Email:        params.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		// Unique constraint lost a race with a concurrent sign-up.
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "Email or username already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	metrics.SignupsTotal.Inc()
	s.logger.Info("user registered", "user_id", user.ID)

	return user, nil
}

// Login authenticates by email and password and issues a session token. Only
// the SHA-256 of the token is stored.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &domain.ValidationError{
			Op:     op,
			Fields: map[string]string{"form": "All fields are required."},
		}
	}

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate session token")
	}

	expiresAt := time.Now().Add(s.sessionDuration)
	_, err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    repoUser.ID,
		TokenHash: hashSessionToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("user logged in", "user_id", user.ID)

	return &domain.LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout deletes the session for token. Unknown and malformed tokens are
// ignored.
func (s *userService) Logout(ctx context.Context, token string) error {
	if !wellFormedToken(token) {
		return nil
	}

	if err := s.queries.DeleteSession(ctx, hashSessionToken(token)); err != nil {
		s.logger.Warn("failed to delete session", "error", err)
	}

	s.logger.Debug("session invalidated")
	return nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// GetBySessionToken hashes token and looks up an unexpired session.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	if !wellFormedToken(token) {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	sess, err := s.queries.GetSessionByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	repoUser, err := s.queries.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *userService) DeleteExpiredSessions(ctx context.Context) error {
	const op = "UserService.DeleteExpiredSessions"

	if err := s.queries.DeleteExpiredSessions(ctx); err != nil {
		return domain.Internal(err, op, "Failed to delete expired sessions")
	}

	s.logger.Info("expired sessions cleaned up")
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func normalizeSessionDuration(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultSessionDuration
	case d < MinSessionDuration:
		return MinSessionDuration
	case d > MaxSessionDuration:
		return MaxSessionDuration
	}
	return d
}

// generateSessionToken returns 32 random bytes, hex-encoded.
func generateSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashSessionToken returns the hex SHA-256 of a raw token. Tokens are
// high-entropy, so a fast hash is enough.
// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func wellFormedToken(token string) bool {
	if len(token) != SessionTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    domain.NullTimeValue(u.CreatedAt),
		UpdatedAt:    domain.NullTimeValue(u.UpdatedAt),
	}
}

// validateRegistration checks every field and reports all problems at once.
// It returns the normalised username key on success.
func validateRegistration(op string, params domain.RegisterParams) (string, error) {
	var ve *domain.ValidationError
	add := func(field string, err error) {
		if err == nil {
			return
		}
		ve = ve.Add(op, field, domain.ErrorMessage(err))
	}

	key, err := normalizeUsername(params.Username)
	add("username", err)
	add("email", validateEmail(params.Email))
	add("password", validatePassword(params.Password))

	if ve != nil {
		return "", ve
	}
	return key, nil
}

// normalizeUsername returns the comparison key of a username: NFKC-normalised
// and case-folded, so "Ｊane" and "jane" collide.
func normalizeUsername(username string) (string, error) {
	if username == "" {
		return "", domain.Invalid("", "Username is required")
	}

	key := cases.Fold().String(norm.NFKC.String(username))

	n := utf8.RuneCountInString(key)
	if n < MinUsernameLength {
		return "", domain.Invalid("", "Username must be at least 3 characters")
	}
	if n > MaxUsernameLength {
		return "", domain.Invalid("", "Username must be 30 characters or less")
	}

	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return "", domain.Invalid("", "Username may only contain letters, numbers, '_' and '.'")
		}
	}
	return key, nil
}

// validateEmail does a structural check: one @, a local part, and a dotted
// domain without empty labels.
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}
	if len(email) > 254 {
		return domain.Invalid("", "Email must be 254 characters or less")
	}

	local, host, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(host, "@") {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}
	if local == "" || host == "" {
		return domain.Invalid("", "Email must have a name and a domain")
	}
	if !strings.Contains(host, ".") {
		return domain.Invalid("", "Email domain must contain a dot")
	}
	if strings.Contains(email, "..") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return domain.Invalid("", "Email cannot contain empty domain labels")
	}
	if strings.ContainsFunc(email, unicode.IsSpace) {
		return domain.Invalid("", "Email cannot contain spaces")
	}
	return nil
}

// validatePassword enforces length, at least one letter and one number, and
// rejects well-known passwords.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}

	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	if !hasLetter {
		return domain.Invalid("", "Password must contain at least one letter")
	}
	if !hasNumber {
		return domain.Invalid("", "Password must contain at least one number")
	}

	if commonPasswords[strings.ToLower(password)] {
		return domain.Invalid("", "Password is too common")
	}
	return nil
}
