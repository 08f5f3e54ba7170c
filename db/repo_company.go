package db

import (
	"context"
	"errors"
	"strings"

	"Gin_postgres_redis_tsd_control/models"

	"gorm.io/gorm"
)

var ErrCompanyExists = errors.New("company already exists")

func (r *Repo) ListCompanies(ctx context.Context, activeOnly bool) ([]models.Company, error) {
	q := r.DB.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var cs []models.Company
	if err := q.Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *Repo) CreateCompany(ctx context.Context, name string) (*models.Company, error) {
	c := &models.Company{Name: strings.TrimSpace(name), IsActive: true}
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCompanyExists
		}
		return nil, err
	}
	return c, nil
}

// CompanyName resolves a company id; unknown ids give "".
func (r *Repo) CompanyName(ctx context.Context, id uint) (string, error) {
	var c models.Company
	err := r.DB.WithContext(ctx).Select("name").First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// SetCompanyActive hides or shows a company; false means no such company.
func (r *Repo) SetCompanyActive(ctx context.Context, id uint, active bool) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
