package app

import (
	"context"
	"log"
	"time"

	"Gin_postgres_redis_tsd_control/config"
	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/employees"
	"Gin_postgres_redis_tsd_control/events"
	"Gin_postgres_redis_tsd_control/lock"
	"Gin_postgres_redis_tsd_control/session"
	"Gin_postgres_redis_tsd_control/tsd"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config config.Config

	Repo      *db.Repo
	Employees *employees.Directory
	Events    events.Publisher
	Locker    lock.Locker
	TSD       *tsd.Service

	appSess *session.AppSessionStore
	tokens  *session.Tokens
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// Tokens is nil when JWT_SECRET is not set.
func (a *App) Tokens() *session.Tokens { return a.tokens }

func MustNew(cfg config.Config) *App {
	dbConn := db.ConnectDB(cfg)

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: cfg.RedisDB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		pub = events.NewAMQP(cfg.AMQPURL, cfg.EventsQueue)
		log.Printf("events -> amqp queue %s", cfg.EventsQueue)
	}

	return New(cfg, dbConn, rdb, pub)
}

// New wires the app around already opened stores.
func New(cfg config.Config, dbConn *gorm.DB, rdb *redis.Client, pub events.Publisher) *App {
	if pub == nil {
		pub = events.Nop{}
	}

	var locker lock.Locker
	switch cfg.LockBackend {
	case "local":
		locker = lock.NewLocal(cfg.LockWait)
	default:
		locker = lock.NewRedis(rdb, cfg.LockTTL, cfg.LockWait)
	}

	repo := db.NewRepo(dbConn)
	emps := employees.NewDirectory(cfg.EmployeesCSVPath)

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
		Repo:      repo,
		Employees: emps,
		Events:    pub,
		Locker:    locker,
		TSD:       tsd.New(repo, emps, repo, locker, pub),
		appSess:   session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	if cfg.JWTSecret != "" {
		a.tokens = session.NewTokens(cfg.JWTSecret)
	}
	return a
}

func (a *App) Close() {
	_ = a.Events.Close()
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
