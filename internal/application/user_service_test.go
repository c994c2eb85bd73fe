package application

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	"github.com/oksasatya/qualopt/pkg/helpers"
)

func TestUserService_Login(t *testing.T) {
	store := newMemStore()
	hash, err := helpers.HashPassword("correct-horse")
	require.NoError(t, err)
	u := &entity.User{Email: "user@email.com", Password: hash, Name: "Operator"}
	require.NoError(t, memUsers{store}.Create(context.Background(), u))

	logger, _ := test.NewNullLogger()
	jwt := helpers.NewJWTManager("secret", time.Minute)
	svc := NewUserService(memUsers{store}, jwt, nil, logger)

	res, token, exp, err := svc.Login(context.Background(), "user@email.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := jwt.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.NotEmpty(t, claims.SessionID)

	_, _, _, err = svc.Login(context.Background(), "user@email.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = svc.Login(context.Background(), "nobody@email.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	p, err := svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Operator", p.Name)
	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
