// internal/accounts/accounts.go
//
// Optional player accounts.
// Responsibilities:
//   - Signup/login with validated usernames and bcrypt password hashes.
//   - HS256 JWT issue/verify carrying the user id and username.
//   - User lookups for auth middleware.

package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("user not found")
)

// User matches the users table shape.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Claims are the identity fields carried by a token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Service owns the users table and token signing.
type Service struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a Service signing tokens with secret that expire after ttl.
func NewService(db *sql.DB, secret string, ttl time.Duration) *Service {
	return &Service{db: db, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewID returns a random identifier for users, games and anonymous players.
func NewID() string { return uuid.NewString() }

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8–72 chars")
	}
	return nil
}

// Signup validates input, checks uniqueness, hashes the password and inserts a new user.
func (s *Service) Signup(ctx context.Context, username, pw string) (*User, error) {
	username = NormalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("accounts: lookup %s: %w", username, err)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           NewID(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("accounts: insert %s: %w", username, err)
	}
	return u, nil
}

// Login returns the user matching username and pw.
func (s *Service) Login(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindByUsername loads a user by case-insensitive username.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at
	                                  FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

// FindByID loads a user by id.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at
	                                  FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// SignToken creates an HS256 JWT for u and returns it with its expiry.
func (s *Service) SignToken(u *User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// ParseToken verifies tok and returns its identity claims.
func (s *Service) ParseToken(tok string) (Claims, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return Claims{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ID: id, Username: username}, nil
}
