package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"mernlog/internal/auth"
	"mernlog/internal/models"
	"mernlog/internal/repositories"
	"mernlog/internal/services"
	"mernlog/pkg/tokenstore"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockUserRepository) GetByKakaoID(ctx context.Context, kakaoID string) (*models.User, error) {
	return m.user(m.Called(ctx, kakaoID))
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// fakeKakao is a stub auth.OAuthProvider.
type fakeKakao struct {
	info *auth.OAuthUserInfo
	err  error
}

func (f *fakeKakao) AuthCodeURL(state string) string {
	return "https://kakao.test/authorize?state=" + state
}

func (f *fakeKakao) Exchange(_ context.Context, _ string) (*auth.OAuthUserInfo, error) {
	return f.info, f.err
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const testJWTSecret = "test_jwt_secret"

var notFound = fmt.Errorf("user: %w", repositories.ErrNotFound)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, services.WithBcryptCost(bcrypt.MinCost))

	// Successful registration
	mockRepo.On("GetByUserID", mock.Anything, "alice").Return(nil, notFound).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UserID)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Id already taken
	mockRepo.On("GetByUserID", mock.Anything, "alice").Return(&models.User{ID: "1", UserID: "alice"}, nil).Once()
	_, err = authService.Register(ctx, "alice", "password123")
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Contains(t, err.Error(), "id 'alice' already taken")
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)

	// Lost race on the unique index
	mockRepo.On("GetByUserID", mock.Anything, "bob").Return(nil, notFound).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(fmt.Errorf("user bob: %w", repositories.ErrDuplicate)).Once()
	_, err = authService.Register(ctx, "bob", "password123")
	assert.ErrorIs(t, err, services.ErrConflict)
	mockRepo.AssertExpectations(t)

	// Missing password
	_, err = authService.Register(ctx, "carol", "")
	assert.ErrorIs(t, err, services.ErrValidation)

	// Kakao ids are reserved
	for _, id := range []string{"kakao_4242", "Kakao_4242", " KAKAO_x"} {
		_, err = authService.Register(ctx, id, "password123")
		assert.ErrorIs(t, err, services.ErrValidation, id)
	}
	mockRepo.AssertNotCalled(t, "GetByUserID", mock.Anything, "kakao_4242")
	mockRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: "user-123", UserID: "alice", Password: string(hashedPassword)}

	// Successful login
	mockRepo.On("GetByUserID", mock.Anything, "alice").Return(user, nil).Once()
	token, loggedIn, err := authService.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims["id"])
	assert.Equal(t, "alice", claims["user_id"])
	mockRepo.AssertExpectations(t)

	// Wrong password and unknown user fail the same way
	mockRepo.On("GetByUserID", mock.Anything, "alice").Return(user, nil).Once()
	_, _, wrongPassword := authService.Login(ctx, "alice", "wrongpassword")
	mockRepo.On("GetByUserID", mock.Anything, "ghost").Return(nil, notFound).Once()
	_, _, unknownUser := authService.Login(ctx, "ghost", "password123")

	assert.ErrorIs(t, wrongPassword, services.ErrUnauthorized)
	assert.ErrorIs(t, unknownUser, services.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	mockRepo.AssertExpectations(t)

	// Kakao-only accounts cannot log in with a password
	kakaoID := "99"
	mockRepo.On("GetByUserID", mock.Anything, "kakao_99").Return(&models.User{ID: "k", UserID: "kakao_99", KakaoID: &kakaoID}, nil).Once()
	_, _, err = authService.Login(ctx, "kakao_99", "")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	// Store failures are not reported as bad credentials
	mockRepo.On("GetByUserID", mock.Anything, "dave").Return(nil, errors.New("connection refused")).Once()
	_, _, err = authService.Login(ctx, "dave", "password123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrUnauthorized)
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret)

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	valid := sign(jwt.MapClaims{"id": "user-123", "user_id": "alice", "exp": time.Now().Add(time.Hour).Unix()}, testJWTSecret)
	session, err := authService.ValidateToken(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "user-123", session.ID)
	assert.Equal(t, "alice", session.UserID)

	_, err = authService.ValidateToken(ctx, "invalid.token.string")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	wrongSecret := sign(jwt.MapClaims{"id": "user-123", "user_id": "alice", "exp": time.Now().Add(time.Hour).Unix()}, "other")
	_, err = authService.ValidateToken(ctx, wrongSecret)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	expired := sign(jwt.MapClaims{"id": "user-123", "user_id": "alice", "exp": time.Now().Add(-time.Hour).Unix()}, testJWTSecret)
	_, err = authService.ValidateToken(ctx, expired)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	anonymous := sign(jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, testJWTSecret)
	_, err = authService.ValidateToken(ctx, anonymous)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret,
		services.WithBcryptCost(bcrypt.MinCost),
		services.WithRevoker(tokenstore.NewMemoryStore()),
	)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	mockRepo.On("GetByUserID", mock.Anything, "alice").Return(&models.User{ID: "1", UserID: "alice", Password: string(hashedPassword)}, nil)

	token, _, err := authService.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = authService.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, token))
	_, err = authService.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	assert.NoError(t, authService.Logout(ctx, ""))
	assert.NoError(t, authService.Logout(ctx, "garbage"))
}

func TestAuthService_CheckDuplicateAndDelete(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	mockRepo.On("GetByUserID", mock.Anything, "alice").Return(&models.User{ID: "1", UserID: "alice"}, nil).Once()
	mockRepo.On("GetByUserID", mock.Anything, "bob").Return(nil, notFound).Once()

	exists, err := authService.CheckDuplicate(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = authService.CheckDuplicate(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	mockRepo.On("Delete", mock.Anything, "1").Return(nil).Once()
	mockRepo.On("Delete", mock.Anything, "2").Return(fmt.Errorf("user 2: %w", repositories.ErrNotFound)).Once()
	assert.NoError(t, authService.DeleteAccount(ctx, "1"))
	assert.ErrorIs(t, authService.DeleteAccount(ctx, "2"), services.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginWithKakao(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryUserRepository()
	kakao := &fakeKakao{info: &auth.OAuthUserInfo{Provider: "kakao", ProviderUserID: "777", ProfileImage: "https://img/p.png"}}
	authService := services.NewAuthService(users, testJWTSecret, services.WithKakao(kakao))

	token, user, err := authService.LoginWithKakao(ctx, "code")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "kakao_777", user.UserID)
	assert.Equal(t, "https://img/p.png", user.ProfileImage)
	require.NotNil(t, user.KakaoID)

	// Second login reuses the account
	_, again, err := authService.LoginWithKakao(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	session, err := authService.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "kakao_777", session.UserID)

	kakao.info = &auth.OAuthUserInfo{Provider: "kakao"}
	_, _, err = authService.LoginWithKakao(ctx, "code")
	assert.ErrorIs(t, err, services.ErrValidation, "accounts need a kakao id or a password")

	kakao.err = errors.New("invalid_grant")
	_, _, err = authService.LoginWithKakao(ctx, "bad")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	_, _, err = services.NewAuthService(users, testJWTSecret).LoginWithKakao(ctx, "code")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
