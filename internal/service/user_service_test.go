package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
)

func TestRevokeLastAdminRefused(t *testing.T) {
	repo := newMemUserRepo(&models.User{ID: "a1", Email: "a@example.com", Role: models.RoleAdmin})
	svc := NewUserService(repo, nil, nil)

	_, err := svc.RevokeAdmin(context.Background(), "a1")
	assert.ErrorIs(t, err, appErrors.ErrLastAdmin)
	assert.Equal(t, models.RoleAdmin, repo.users["a1"].Role)

	_, err = svc.ChangeRole(context.Background(), "a1", dto.ChangeRoleRequest{Role: "instructor"})
	assert.ErrorIs(t, err, appErrors.ErrLastAdmin)
}

func TestRevokeAdminWithAnotherAdmin(t *testing.T) {
	repo := newMemUserRepo(
		&models.User{ID: "a1", Email: "a@example.com", Role: models.RoleAdmin},
		&models.User{ID: "a2", Email: "b@example.com", Role: models.RoleAdmin},
	)
	svc := NewUserService(repo, nil, nil)

	user, err := svc.RevokeAdmin(context.Background(), "a2")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)

	_, err = svc.RevokeAdmin(context.Background(), "a1")
	assert.ErrorIs(t, err, appErrors.ErrLastAdmin)
}

func TestRevokeAdminRejectsNonAdmin(t *testing.T) {
	repo := newMemUserRepo(&models.User{ID: "s1", Email: "s@example.com", Role: models.RoleStudent})
	svc := NewUserService(repo, nil, nil)

	_, err := svc.RevokeAdmin(context.Background(), "s1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.RevokeAdmin(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGrantAdminPromotesOrProvisions(t *testing.T) {
	repo := newMemUserRepo(&models.User{ID: "s1", Email: "s@example.com", Role: models.RoleStudent})
	svc := NewUserService(repo, nil, nil)

	promoted, err := svc.GrantAdmin(context.Background(), dto.GrantAdminRequest{Email: "S@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "s1", promoted.ID)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	provisioned, err := svc.GrantAdmin(context.Background(), dto.GrantAdminRequest{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, provisioned.Role)
	assert.Nil(t, provisioned.GoogleID)
	assert.Equal(t, "new", provisioned.Name)

	_, err = svc.GrantAdmin(context.Background(), dto.GrantAdminRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestChangeRoleValidation(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), nil, nil)
	_, err := svc.ChangeRole(context.Background(), "x", dto.ChangeRoleRequest{Role: "owner"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestListUsersPagination(t *testing.T) {
	repo := newMemUserRepo(
		&models.User{ID: "a1", Email: "a@example.com", Role: models.RoleAdmin},
		&models.User{ID: "s1", Email: "s@example.com", Role: models.RoleStudent},
	)
	svc := NewUserService(repo, nil, nil)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.Limit)
	assert.Equal(t, 1, pagination.Pages)

	bad := models.UserRole("owner")
	_, _, err = svc.List(context.Background(), models.UserFilter{Role: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
