package session

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_tsd_control/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*AppSessionStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewAppSessionStore(rdb, time.Hour), s
}

func TestAppSessionStore_CreateGetDelete(t *testing.T) {
	store, s := newStore(t)
	ctx := context.Background()
	company := uint(3)

	require.NoError(t, store.Create(ctx, "sid-1", models.CurrentUser{ID: 5, Role: models.RoleManager, CompanyID: &company}))
	assert.True(t, s.Exists("tsd:sess:sid-1"))
	assert.Equal(t, time.Hour, s.TTL("tsd:sess:sid-1"))

	as, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, models.CurrentUser{ID: 5, Role: models.RoleManager, CompanyID: &company}, as.CurrentUser())

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestAppSessionStore_Expires(t *testing.T) {
	store, s := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, "sid-1", models.CurrentUser{ID: 1, Role: models.RoleOperator}))

	s.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestAppSessionStore_RevokeAllForUser(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	u := models.CurrentUser{ID: 9, Role: models.RoleOperator}
	require.NoError(t, store.Create(ctx, "a", u))
	require.NoError(t, store.Create(ctx, "b", u))
	require.NoError(t, store.Create(ctx, "other", models.CurrentUser{ID: 10, Role: models.RoleOperator}))

	n, err := store.RevokeAllForUser(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"a", "b"} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, redis.Nil)
	}
	_, err = store.Get(ctx, "other")
	assert.NoError(t, err)
}

func TestTokens_RoundTrip(t *testing.T) {
	tk := NewTokens("s3cret")
	company := uint(4)
	raw, err := tk.Sign(models.CurrentUser{ID: 12, Role: models.RoleManager, CompanyID: &company}, time.Minute)
	require.NoError(t, err)

	u, err := tk.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(12), u.ID)
	assert.Equal(t, models.RoleManager, u.Role)
	require.NotNil(t, u.CompanyID)
	assert.Equal(t, company, *u.CompanyID)
}

func TestTokens_Rejects(t *testing.T) {
	tk := NewTokens("s3cret")

	other, err := NewTokens("different").Sign(models.CurrentUser{ID: 1, Role: models.RoleAdmin}, time.Minute)
	require.NoError(t, err)
	_, err = tk.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := tk.Sign(models.CurrentUser{ID: 1, Role: models.RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	_, err = tk.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = tk.Verify(badRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tk.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
