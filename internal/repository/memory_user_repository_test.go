package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

func TestMemoryUserRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := &domain.User{ID: "u-1", Name: "Asha", Email: "Asha@HReady.io", Role: domain.RoleEmployee, Active: true}
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.GetByEmail(ctx, "asha@hready.io")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)
	assert.Equal(t, "asha@hready.io", byEmail.Email)

	byID, err := repo.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, byID.Role)

	assert.Error(t, repo.Create(ctx, &domain.User{ID: "u-2", Email: "asha@hready.io"}), "duplicate email")

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
