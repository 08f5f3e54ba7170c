package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"Gin_postgres_redis_tsd_control/models"

	"github.com/redis/go-redis/v9"
)

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

// AppSession is the current-user context kept in redis for a session id.
type AppSession struct {
	UserID    uint        `json:"uid"`
	Role      models.Role `json:"role"`
	CompanyID *uint       `json:"company_id"`
	IssuedAt  int64       `json:"iat"`
	ExpiresAt int64       `json:"exp"`
}

func (s AppSession) CurrentUser() models.CurrentUser {
	return models.CurrentUser{ID: s.UserID, Role: s.Role, CompanyID: s.CompanyID}
}

func key(id string) string       { return fmt.Sprintf("tsd:sess:%s", id) }
func userSetKey(uid uint) string { return "tsd:user_sessions:" + strconv.FormatUint(uint64(uid), 10) }

func (s *AppSessionStore) Create(ctx context.Context, id string, u models.CurrentUser) error {
	now := time.Now()
	b, _ := json.Marshal(AppSession{
		UserID:    u.ID,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, userSetKey(u.ID), id)
	pipe.Expire(ctx, userSetKey(u.ID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id) // 忽略失败
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, userSetKey(as.UserID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForUser 撤销该用户的所有会话（角色或公司变更后使用）
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, userID uint) (int, error) {
	ids, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, userSetKey(userID))
	_, err = pipe.Exec(ctx)
	return len(ids), err
}
