// Package tsd is the handheld-terminal checkout/return ledger: barcode
// classification, issuance, returns and reporting over tsd_transactions.
package tsd

import (
	"context"
	"errors"
	"log"
	"time"

	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/employees"
	"Gin_postgres_redis_tsd_control/events"
	"Gin_postgres_redis_tsd_control/lock"
	"Gin_postgres_redis_tsd_control/models"

	"gorm.io/gorm"
)

// MaxPerHolder is how many terminals one employee may hold at once.
const MaxPerHolder = 2

// TimeLayout is how ledger timestamps are rendered for people.
const TimeLayout = "2006-01-02 15:04:05"

type EmployeeDirectory interface {
	Lookup(code string) (employees.Employee, bool, error)
}

type CompanyDirectory interface {
	CompanyName(ctx context.Context, id uint) (string, error)
}

type Service struct {
	repo      *db.Repo
	employees EmployeeDirectory
	companies CompanyDirectory
	locker    lock.Locker
	events    events.Publisher
	now       func() time.Time
}

func New(repo *db.Repo, emps EmployeeDirectory, companies CompanyDirectory, locker lock.Locker, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		repo:      repo,
		employees: emps,
		companies: companies,
		locker:    locker,
		events:    pub,
		now:       func() time.Time { return time.Now() },
	}
}

// SetClock replaces the time source; used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// stamp is the current store-local time at second resolution.
func (s *Service) stamp() time.Time { return s.now().Local().Truncate(time.Second) }

func tsdKey(n string) string      { return "tsd:" + n }
func employeeKey(l string) string { return "employee:" + l }

func (s *Service) lock(ctx context.Context, keys ...string) (func(), error) {
	release, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, &StorageError{Op: "lock", Err: err}
	}
	return release, nil
}

func (s *Service) publish(ctx context.Context, typ events.Type, t *models.TSDTransaction) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := s.events.Publish(ctx, events.Event{
		Type:          typ,
		TransactionID: t.ID,
		TSDNumber:     t.TSDNumber,
		EmployeeLogin: t.EmployeeLogin,
		Company:       t.Company,
		OperatorID:    t.OperatorID,
		OccurredAt:    s.stamp(),
	})
	if err != nil {
		log.Printf("[tsd] publish %s for #%d failed: %v", typ, t.ID, err)
	}
}

func alreadyIssued(cur *models.TSDTransaction) error {
	return &AlreadyIssuedError{
		TSDNumber: cur.TSDNumber,
		Holder:    cur.HolderLabel(),
		IssueTime: cur.IssueTime,
	}
}

// Active lists every outstanding issuance, newest first.
func (s *Service) Active(ctx context.Context) ([]models.TSDTransaction, error) {
	ts, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return nil, storage("active", err)
	}
	if ts == nil {
		ts = []models.TSDTransaction{}
	}
	return ts, nil
}

// Delete hard-deletes a transaction. Only admins may do it; each delete is audited.
func (s *Service) Delete(ctx context.Context, user models.CurrentUser, id uint) error {
	if !user.IsAdmin() {
		return ErrForbidden
	}

	actor := ""
	if u, err := s.repo.FindUserByID(ctx, user.ID); err == nil {
		actor = u.Username
	}

	var deleted *models.TSDTransaction
	err := s.repo.InTx(ctx, func(tx *db.Repo) error {
		t, err := tx.FindTransaction(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		ok, err := tx.DeleteTransaction(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		detail := "tsd_number=" + t.TSDNumber + " status=" + string(t.Status) + " employee_login=" + t.EmployeeLogin
		if _, err := tx.LogAdminAction(ctx, user.ID, actor, "tsd.delete", id, &detail); err != nil {
			return err
		}
		deleted = t
		return nil
	})
	if err != nil {
		return storage("delete", err)
	}

	log.Printf("[tsd] transaction #%d (%s) deleted by user %d", id, deleted.TSDNumber, user.ID)
	s.publish(ctx, events.TSDDeleted, deleted)
	return nil
}
