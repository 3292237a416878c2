package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/routecraft/routecraft/config"
	"github.com/routecraft/routecraft/internal/types"
)

// MockAuthRepository is a mock implementation of Repository
type MockAuthRepository struct {
	mock.Mock
}

func (m *MockAuthRepository) CreateUser(ctx context.Context, username, email, password string) (*types.UserAuth, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepository) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepository) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepository) VerifyPassword(ctx context.Context, email, password string) (*types.UserAuth, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepository) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepository) RedeemRefreshToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:     "test-secret",
		Issuer:        "routecraft",
		Audience:      "routecraft-api",
		AccessExpiry:  30 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	}
}

func setupAuthServiceTest() (*ServiceImpl, *MockAuthRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockAuthRepository)
	service := NewService(mockRepo, testJWTConfig(), logger)
	return service, mockRepo
}

func testUser() *types.UserAuth {
	return &types.UserAuth{
		ID:       "11111111-2222-3333-4444-555555555555",
		Username: "wanderer",
		Email:    "wanderer@example.com",
		Role:     "user",
	}
}

func TestServiceImpl_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		expected := testUser()
		mockRepo.On("CreateUser", ctx, "wanderer", "wanderer@example.com", "longenough").
			Return(expected, nil).Once()

		user, err := service.Register(ctx, "wanderer", "wanderer@example.com", "longenough")
		require.NoError(t, err)
		assert.Equal(t, expected, user)
		mockRepo.AssertExpectations(t)
	})

	t.Run("short password is rejected before touching the repo", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()

		_, err := service.Register(ctx, "wanderer", "wanderer@example.com", "short")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a signed access token with the expected claims", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		user := testUser()
		mockRepo.On("VerifyPassword", ctx, user.Email, "longenough").Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil).Once()

		accessToken, refreshToken, err := service.Login(ctx, user.Email, "longenough")
		require.NoError(t, err)
		assert.NotEmpty(t, refreshToken)

		claims := &types.Claims{}
		parsed, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "routecraft", claims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"routecraft-api"}, claims.Audience)
		assert.Equal(t, "user", claims.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong credentials pass the repo error through", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("VerifyPassword", ctx, "x@example.com", "wrong").
			Return(nil, types.ErrUnauthenticated).Once()

		_, _, err := service.Login(ctx, "x@example.com", "wrong")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})
}

func TestServiceImpl_RefreshSession(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		user := testUser()
		mockRepo.On("RedeemRefreshToken", ctx, "old-token").Return(user.ID, nil).Once()
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil).Once()

		accessToken, newRefreshToken, err := service.RefreshSession(ctx, "old-token")
		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEqual(t, "old-token", newRefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("revoked or unknown token", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("RedeemRefreshToken", ctx, "revoked").
			Return("", types.ErrUnauthenticated).Once()

		_, _, err := service.RefreshSession(ctx, "revoked")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})
}
