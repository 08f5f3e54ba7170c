package db

import (
	"context"
	"fmt"

	"Gin_postgres_redis_tsd_control/models"

	"github.com/google/uuid"
)

func (r *Repo) LogAdminAction(ctx context.Context, actorID uint, actorUsername, action string, targetID uint, detail *string) (*models.AdminLog, error) {
	log := &models.AdminLog{
		ID:            uuid.NewString(),
		ActorID:       actorID,
		ActorUsername: actorUsername,
		Action:        action,
		TargetID:      targetID,
		Detail:        detail,
	}
	if err := r.DB.WithContext(ctx).Create(log).Error; err != nil {
		return nil, fmt.Errorf("insert admin log: %w", err)
	}
	return log, nil
}

func (r *Repo) ListAdminActions(ctx context.Context, targetID uint) ([]models.AdminLog, error) {
	var ls []models.AdminLog
	err := r.DB.WithContext(ctx).Where("target_id = ?", targetID).Order("created_at DESC").Find(&ls).Error
	return ls, err
}
