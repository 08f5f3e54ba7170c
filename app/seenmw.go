// app/seenmw.go
package app

import (
	"strconv"
	"time"

	"Gin_postgres_redis_tsd_control/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok || u.ID == 0 {
			c.Next()
			return
		}

		key := "tsd:user:lastseen:" + strconv.FormatUint(uint64(u.ID), 10)
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = repo.TouchUserSeen(c, u.ID) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
