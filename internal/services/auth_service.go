package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mernlog/internal/auth"
	"mernlog/internal/models"
	"mernlog/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// kakaoUserIDPrefix prefixes the login id generated for Kakao accounts.
// Local registration may not use it.
const kakaoUserIDPrefix = "kakao_"

// TokenRevoker remembers logged-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, key string, ttl time.Duration) error
	IsRevoked(ctx context.Context, key string) (bool, error)
}

// Session is the identity carried by a session token.
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	bcryptCost int
	revoker    TokenRevoker
	kakao      auth.OAuthProvider
	publisher  EventPublisher
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithTokenDuration sets how long issued tokens stay valid.
func WithTokenDuration(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.tokenDurat = d
		}
	}
}

// WithBcryptCost sets the bcrypt cost used for new password hashes.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithRevoker enables logout by recording revoked tokens.
func WithRevoker(r TokenRevoker) AuthOption {
	return func(s *AuthService) { s.revoker = r }
}

// WithKakao enables Kakao login.
func WithKakao(p auth.OAuthProvider) AuthOption {
	return func(s *AuthService) { s.kakao = p }
}

// WithAuthEvents publishes user events through p.
func WithAuthEvents(p EventPublisher) AuthOption {
	return func(s *AuthService) { s.publisher = p }
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: time.Hour, // Matches the session cookie lifetime
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenDuration returns how long issued tokens stay valid.
func (s *AuthService) TokenDuration() time.Duration {
	return s.tokenDurat
}

// HashPassword hashes a plain-text password with the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", ErrValidation)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a local account with a hashed password.
func (s *AuthService) Register(ctx context.Context, userID, password string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || password == "" {
		return nil, fmt.Errorf("%w: id and password are required", ErrValidation)
	}
	if strings.HasPrefix(strings.ToLower(userID), kakaoUserIDPrefix) {
		return nil, fmt.Errorf("%w: ids starting with %q are reserved", ErrValidation, kakaoUserIDPrefix)
	}

	if existing, err := s.userRepo.GetByUserID(ctx, userID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: id '%s' already taken", ErrConflict, userID)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check id %s: %w", userID, err)
	}

	hashed, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{UserID: userID, Password: hashed}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}

	publish(s.publisher, EventUserRegistered, map[string]string{"id": user.ID, "userId": user.UserID})
	return user, nil
}

// createUser stores a new account. Every account needs a password or a
// Kakao id to sign in with.
func (s *AuthService) createUser(ctx context.Context, user *models.User) error {
	if !user.HasCredential() {
		return fmt.Errorf("%w: user %s has neither a password nor a kakao id", ErrValidation, user.UserID)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return translate(fmt.Errorf("failed to create user %s: %w", user.UserID, err))
	}
	return nil
}

// Login authenticates a user and returns a signed session token. Unknown ids
// and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, userID, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", nil, fmt.Errorf("failed to look up user: %w", err)
		}
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if user.Password == "" {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// KakaoLoginURL returns the Kakao authorization URL for state.
func (s *AuthService) KakaoLoginURL(state string) (string, error) {
	if s.kakao == nil {
		return "", fmt.Errorf("%w: kakao login is not configured", ErrNotFound)
	}
	return s.kakao.AuthCodeURL(state), nil
}

// LoginWithKakao exchanges an authorization code with Kakao, creating the
// local account on first login, and returns a session token.
func (s *AuthService) LoginWithKakao(ctx context.Context, code string) (string, *models.User, error) {
	if s.kakao == nil {
		return "", nil, fmt.Errorf("%w: kakao login is not configured", ErrNotFound)
	}
	if code == "" {
		return "", nil, fmt.Errorf("%w: authorization code is required", ErrValidation)
	}

	info, err := s.kakao.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("%w: kakao exchange failed: %v", ErrUnauthorized, err)
	}

	user, err := s.userRepo.GetByKakaoID(ctx, info.ProviderUserID)
	switch {
	case err == nil:
		if info.ProfileImage != "" && user.ProfileImage == "" {
			user.ProfileImage = info.ProfileImage
			if err := s.userRepo.Update(ctx, user); err != nil {
				log.Printf("Failed to store kakao profile image for %s: %v", user.UserID, err)
			}
		}
	case errors.Is(err, repositories.ErrNotFound):
		kakaoID := info.ProviderUserID
		user = &models.User{
			UserID:       kakaoUserIDPrefix + kakaoID,
			KakaoID:      &kakaoID,
			ProfileImage: info.ProfileImage,
		}
		if err := s.createUser(ctx, user); err != nil {
			return "", nil, err
		}
		publish(s.publisher, EventUserRegistered, map[string]string{"id": user.ID, "userId": user.UserID, "provider": info.Provider})
	default:
		return "", nil, fmt.Errorf("failed to look up kakao user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      user.ID,
		"user_id": user.UserID,
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims, nil
}

// ValidateToken parses and validates a session token, rejecting tokens that
// were revoked by logout.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, revocationKey(tokenString))
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: invalid token: revoked", ErrUnauthorized)
		}
	}

	session := &Session{}
	session.ID, _ = claims["id"].(string)
	session.UserID, _ = claims["user_id"].(string)
	if iat, ok := claims["iat"].(float64); ok {
		session.IssuedAt = int64(iat)
	}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = int64(exp)
	}
	if session.ID == "" || session.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token: missing identity", ErrUnauthorized)
	}
	return session, nil
}

// Logout revokes tokenString for the rest of its lifetime. Invalid or
// already expired tokens need no revocation.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" || s.revoker == nil {
		return nil
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil
	}
	ttl := time.Until(time.Unix(int64(exp), 0))
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, revocationKey(tokenString), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// CheckDuplicate reports whether userID is already registered.
func (s *AuthService) CheckDuplicate(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, fmt.Errorf("%w: id is required", ErrValidation)
	}
	_, err := s.userRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check id %s: %w", userID, err)
	}
}

// DeleteAccount removes the user record. Posts and comments written by the
// user are kept.
func (s *AuthService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

func revocationKey(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
