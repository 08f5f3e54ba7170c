package lock

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 只有持有者（token 相同）才能删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a distributed locker shared by every API instance using the same redis.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewRedis(rdb *redis.Client, ttl, wait time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{rdb: rdb, prefix: "tsd:lock:", ttl: ttl, wait: wait, retry: 20 * time.Millisecond}
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	token := uuid.NewString()
	acquired := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := r.acquire(ctx, r.prefix+k, token); err != nil {
			r.release(acquired, token)
			return nil, err
		}
		acquired = append(acquired, r.prefix+k)
	}

	var once sync.Once
	return func() { once.Do(func() { r.release(acquired, token) }) }, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	t := time.NewTicker(r.retry)
	defer t.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return ErrTimeout
			}
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return ErrTimeout
			}
			return ctx.Err()
		}
	}
}

// release uses a fresh context: the caller's may already be cancelled.
func (r *Redis) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, k := range keys {
		if err := releaseScript.Run(ctx, r.rdb, []string{k}, token).Err(); err != nil {
			log.Printf("[lock] release %s: %v", k, err)
		}
	}
}
