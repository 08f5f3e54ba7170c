package main

import (
	"context"
	"log"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/config"
	"Gin_postgres_redis_tsd_control/routes"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	application := app.MustNew(cfg)
	defer application.Close()

	_, _ = app.BootstrapAdminSession(context.Background(), application)

	r := application.Router
	routes.RegisterRoutes(r, application)

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
