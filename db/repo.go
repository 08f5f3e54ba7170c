package db

import (
	"context"
	"errors"
	"strings"

	"Gin_postgres_redis_tsd_control/models"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// InTx runs fn in one database transaction with a Repo bound to it.
func (r *Repo) InTx(ctx context.Context, fn func(tx *Repo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

// Ping checks the underlying connection.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Users

func (r *Repo) TouchUserSeen(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *Repo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

// 列表（分页 + 关键词匹配用户名）
func (r *Repo) ListUsers(ctx context.Context, q string, page, size int) (ListUsersResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		if q = strings.TrimSpace(q); q != "" {
			tx = tx.Where("LOWER(username) LIKE ? ESCAPE '\\'", likePattern(q))
		}
		return tx
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Scopes(scope).Count(&total).Error; err != nil {
		return ListUsersResult{}, err
	}

	var users []models.User
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Scopes(scope).
		Order("username ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error; err != nil {
		return ListUsersResult{}, err
	}
	return ListUsersResult{Users: users, Total: total}, nil
}

var ErrUserExists = errors.New("user already exists")

func (r *Repo) CreateUser(ctx context.Context, username string, role models.Role, companyID *uint) (*models.User, error) {
	u := &models.User{Username: strings.TrimSpace(username), Role: role, CompanyID: companyID}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) FindOrCreateUser(ctx context.Context, username string, role models.Role) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = models.User{Username: username, Role: role}
		if err := r.DB.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}
	return &u, err
}

// likePattern lower-cases s and escapes LIKE wildcards for use with ESCAPE '\'.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return "%" + s + "%"
}
