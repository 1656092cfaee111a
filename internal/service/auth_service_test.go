package service

import (
	"context"
	"testing"
	"time"

	"entrena/coach-app/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() (AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	return NewAuthService(users, "test-secret", time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Coach", "coach@example.com", "s3cret", domain.RoleCreator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCreator, user.Role)
	assert.Empty(t, user.PasswordHash)

	token, logged, err := svc.Login(ctx, "coach@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(svc.GetJWTSecret()), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleCreator, claims.Role)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Coach", "coach@example.com", "s3cret", domain.RoleCreator)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Otro", "coach@example.com", "other", domain.RoleClient)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "X", "x@example.com", "pw", domain.Role("admin"))
	assert.Error(t, err)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Coach", "coach@example.com", "s3cret", domain.RoleCreator)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "coach@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// Unknown email yields the same error as a bad password.
	_, _, err = svc.Login(ctx, "nadie@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
