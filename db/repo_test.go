package db

import (
	"context"
	"testing"

	"Gin_postgres_redis_tsd_control/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateUser(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	u, err := r.FindOrCreateUser(ctx, "admin", models.RoleAdmin)
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	again, err := r.FindOrCreateUser(ctx, "admin", models.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, models.RoleAdmin, again.Role)

	require.NoError(t, r.TouchUserSeen(ctx, u.ID))
	seen, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, seen.LastSeenAt)
}

func TestListUsers(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	for _, name := range []string{"operator", "manager_acme", "manager_beta", "admin"} {
		_, err := r.FindOrCreateUser(ctx, name, models.RoleOperator)
		require.NoError(t, err)
	}

	res, err := r.ListUsers(ctx, "MANAGER", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "manager_acme", res.Users[0].Username)
}

func TestCompanies(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	c, err := r.CreateCompany(ctx, " ACME ")
	require.NoError(t, err)
	assert.Equal(t, "ACME", c.Name)

	_, err = r.CreateCompany(ctx, "ACME")
	require.ErrorIs(t, err, ErrCompanyExists)

	name, err := r.CompanyName(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME", name)

	name, err = r.CompanyName(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, name)

	cs, err := r.ListCompanies(ctx, true)
	require.NoError(t, err)
	assert.Len(t, cs, 1)

	ok, err := r.SetCompanyActive(ctx, c.ID, false)
	require.NoError(t, err)
	assert.True(t, ok)
	cs, err = r.ListCompanies(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, cs)
	cs, err = r.ListCompanies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, cs, 1)

	ok, err = r.SetCompanyActive(ctx, 999, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateUser(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	company := uint(3)

	u, err := r.CreateUser(ctx, " mgr ", models.RoleManager, &company)
	require.NoError(t, err)
	assert.Equal(t, "mgr", u.Username)
	assert.Equal(t, company, *u.CompanyID)

	_, err = r.CreateUser(ctx, "mgr", models.RoleOperator, nil)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogAdminAction(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	detail := "T1"
	l, err := r.LogAdminAction(ctx, 1, "admin", "tsd.delete", 42, &detail)
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)

	ls, err := r.ListAdminActions(ctx, 42)
	require.NoError(t, err)
	require.Len(t, ls, 1)
	assert.Equal(t, "tsd.delete", ls[0].Action)
}
