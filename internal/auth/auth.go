// Package auth provides login and bearer-token middleware for the dashboard
// API. Passwords use the salted iterated SHA-256 scheme shared with the other
// dashboards; sessions are stateless HS256 JWTs.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleViewer  = "viewer"
)

// hashIterations matches the legacy dashboard password scheme
const hashIterations = 10000

// ErrInvalidCredentials is returned for unknown users, wrong passwords, and
// deactivated accounts alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is one dashboard account
type User struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Service handles authentication against the auth_users table
type Service struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth service
func NewService(db *sql.DB, secret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{db: db, secret: []byte(secret), tokenTTL: tokenTTL}
}

// HashPassword hashes a password with the given salt: SHA-256 iterated
// 10000 times over salt+password. A fresh salt is generated when empty.
func HashPassword(password, salt string) (hash string, usedSalt string, err error) {
	if salt == "" {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return "", "", fmt.Errorf("failed to generate salt: %w", err)
		}
		salt = hex.EncodeToString(raw)
	}

	sum := sha256.Sum256([]byte(salt + password))
	for i := 1; i < hashIterations; i++ {
		sum = sha256.Sum256(sum[:])
	}
	return hex.EncodeToString(sum[:]), salt, nil
}

// VerifyPassword checks a password against its stored hash and salt
func VerifyPassword(password, storedHash, salt string) bool {
	computed, _, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(computed), []byte(storedHash))
}

// LoginResult carries the issued token and the authenticated user
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Login verifies credentials and issues a JWT
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		user         User
		passwordHash string
		salt         string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, salt, name, role, is_active, last_login, created_at
		 FROM auth_users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &passwordHash, &salt, &user.Name, &user.Role,
		&user.IsActive, &user.LastLogin, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, passwordHash, salt) {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", user.ID),
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE auth_users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, user.ID); err != nil {
		logrus.WithError(err).Warn("failed to update last login")
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: &user}, nil
}

// Claims is the authenticated identity extracted from a token
type Claims struct {
	UserID int
	Email  string
	Name   string
	Role   string
}

// ParseToken validates a JWT and extracts its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		fmt.Sscanf(sub, "%d", &claims.UserID)
	}
	claims.Email, _ = mapClaims["email"].(string)
	claims.Name, _ = mapClaims["name"].(string)
	claims.Role, _ = mapClaims["role"].(string)
	return claims, nil
}

// GetUser loads a user by ID
func (s *Service) GetUser(ctx context.Context, id int) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, is_active, last_login, created_at
		 FROM auth_users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.IsActive,
		&user.LastLogin, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// CreateUser stores a new account with a freshly salted password hash
func (s *Service) CreateUser(ctx context.Context, email, password, name, role string) (*User, error) {
	if role == "" {
		role = RoleViewer
	}
	hash, salt, err := HashPassword(password, "")
	if err != nil {
		return nil, err
	}

	user := &User{Email: strings.ToLower(email), Name: name, Role: role, IsActive: true}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO auth_users (email, password_hash, salt, name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		user.Email, hash, salt, name, role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

type contextKey string

const claimsKey contextKey = "auth_claims"

// ClaimsFromContext extracts the authenticated identity, if any
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// Middleware rejects requests without a valid bearer token. Paths listed in
// exempt pass through unauthenticated (webhooks, health, login).
func (s *Service) Middleware(exempt ...string) func(http.Handler) http.Handler {
	exemptSet := make(map[string]bool, len(exempt))
	for _, path := range exempt {
		exemptSet[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptSet[r.URL.Path] || strings.HasPrefix(r.URL.Path, "/api/webhook/") {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "authentication required")
				return
			}
			claims, err := s.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
