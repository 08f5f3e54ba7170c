// db/repo_tsd.go
package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_tsd_control/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) tsd(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&models.TSDTransaction{})
}

// FindOutstanding returns the most recent issued row for tsdNumber, or nil when there is none.
// A non-empty company narrows the search to rows captured under that company.
func (r *Repo) FindOutstanding(ctx context.Context, tsdNumber, company string) (*models.TSDTransaction, error) {
	return r.findOutstanding(r.DB.WithContext(ctx), tsdNumber, company)
}

// FindOutstandingForUpdate is FindOutstanding with a row lock, for use inside InTx.
func (r *Repo) FindOutstandingForUpdate(ctx context.Context, tsdNumber, company string) (*models.TSDTransaction, error) {
	return r.findOutstanding(r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tsdNumber, company)
}

func (r *Repo) findOutstanding(q *gorm.DB, tsdNumber, company string) (*models.TSDTransaction, error) {
	q = q.Where("tsd_number = ? AND status = ?", tsdNumber, models.TSDIssued)
	if company != "" {
		q = q.Where("company = ?", company)
	}
	var t models.TSDTransaction
	res := q.Order("issue_time DESC, id DESC").Limit(1).Find(&t)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *Repo) CountOutstandingByLogin(ctx context.Context, login string) (int64, error) {
	var n int64
	err := r.tsd(ctx).
		Where("employee_login = ? AND status = ?", login, models.TSDIssued).
		Count(&n).Error
	return n, err
}

func (r *Repo) CreateTransaction(ctx context.Context, t *models.TSDTransaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *Repo) FindTransaction(ctx context.Context, id uint) (*models.TSDTransaction, error) {
	var t models.TSDTransaction
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkReturned flips one issued row to returned. It reports false when the row
// was not issued any more, so a row is never returned twice.
func (r *Repo) MarkReturned(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.tsd(ctx).
		Where("id = ? AND status = ?", id, models.TSDIssued).
		Updates(map[string]any{
			"return_time": at,
			"status":      models.TSDReturned,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteTransaction hard-deletes a row; false means it did not exist.
func (r *Repo) DeleteTransaction(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&models.TSDTransaction{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) ListOutstanding(ctx context.Context) ([]models.TSDTransaction, error) {
	var ts []models.TSDTransaction
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.TSDIssued).
		Order("issue_time DESC, id DESC").
		Find(&ts).Error
	return ts, err
}

func historyScope(f models.HistoryFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if f.From != nil {
			tx = tx.Where("issue_time >= ?", *f.From)
		}
		if f.Until != nil {
			tx = tx.Where("issue_time < ?", *f.Until)
		}
		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		}
		if s := strings.TrimSpace(f.EmployeeLogin); s != "" {
			tx = tx.Where("LOWER(employee_login) LIKE ? ESCAPE '\\'", likePattern(s))
		}
		if s := strings.TrimSpace(f.TSDNumber); s != "" {
			tx = tx.Where("LOWER(tsd_number) LIKE ? ESCAPE '\\'", likePattern(s))
		}
		return tx
	}
}

// ListTransactions returns one page of matching rows, newest first; limit <= 0 means no limit.
func (r *Repo) ListTransactions(ctx context.Context, f models.HistoryFilter, limit, offset int) ([]models.TSDTransaction, int64, error) {
	var total int64
	if err := r.tsd(ctx).Scopes(historyScope(f)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.tsd(ctx).Scopes(historyScope(f)).Order("issue_time DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var ts []models.TSDTransaction
	if err := q.Find(&ts).Error; err != nil {
		return nil, 0, err
	}
	return ts, total, nil
}

// CompanyStats aggregates rows per non-empty company; a non-empty company narrows to it.
func (r *Repo) CompanyStats(ctx context.Context, company string) ([]models.CompanyStat, error) {
	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("company IS NOT NULL AND company <> ''")
		if company != "" {
			tx = tx.Where("company = ?", company)
		}
		return tx
	}

	var stats []models.CompanyStat
	if err := r.tsd(ctx).Scopes(scope).
		Select(`company,
			COUNT(CASE WHEN status = ? THEN 1 END) AS issued_count,
			COUNT(CASE WHEN status = ? THEN 1 END) AS returned_count,
			COUNT(CASE WHEN status = ? AND employee_login = ? THEN 1 END) AS company_issued_count`,
			models.TSDIssued, models.TSDReturned, models.TSDIssued, models.CompanyHolderLogin).
		Group("company").
		Order("company").
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	var outstanding []struct {
		Company   string
		TSDNumber string `gorm:"column:tsd_number"`
	}
	if err := r.tsd(ctx).Scopes(scope).
		Select("company, tsd_number").
		Where("status = ?", models.TSDIssued).
		Order("company, issue_time, id").
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}

	byCompany := make(map[string]int, len(stats))
	for i := range stats {
		stats[i].IssuedTSDNumbers = []string{}
		byCompany[stats[i].Company] = i
	}
	for _, o := range outstanding {
		if i, ok := byCompany[o.Company]; ok {
			stats[i].IssuedTSDNumbers = append(stats[i].IssuedTSDNumbers, o.TSDNumber)
		}
	}
	return stats, nil
}
