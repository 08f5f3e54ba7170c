package tsd

import (
	"context"
	"errors"
	"log"
	"strings"

	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/events"
	"Gin_postgres_redis_tsd_control/models"

	"gorm.io/gorm"
)

type IssueInput struct {
	EmployeeLogin string
	EmployeeName  *string
	Company       *string
	TSDNumber     string
	OperatorID    *uint
}

// BulkInput is a company-level batch of terminal numbers.
type BulkInput struct {
	Company    string
	TSDNumbers []string
	OperatorID *uint
}

// ItemError reports one failed terminal of a batch.
type ItemError struct {
	TSDNumber string `json:"tsd_number"`
	Error     string `json:"error"`
	Code      string `json:"code"`
}

func itemError(n string, err error) ItemError {
	if errors.Is(err, ErrStorage) {
		log.Printf("[tsd] item %s: %v", n, err)
		return ItemError{TSDNumber: n, Error: "Internal server error", Code: Code(err)}
	}
	return ItemError{TSDNumber: n, Error: err.Error(), Code: Code(err)}
}

type BulkIssueResult struct {
	Issued []models.TSDTransaction `json:"issued"`
	Errors []ItemError             `json:"errors"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// IssueOne checks a terminal out to one employee.
func (s *Service) IssueOne(ctx context.Context, in IssueInput) (*models.TSDTransaction, error) {
	login := strings.TrimSpace(in.EmployeeLogin)
	number := strings.TrimSpace(in.TSDNumber)
	switch {
	case login == "":
		return nil, invalid("employee_login", "is required")
	case number == "":
		return nil, invalid("tsd_number", "is required")
	case isSentinel(login):
		return nil, invalid("employee_login", "is reserved for company issuance")
	}

	holder := Individual(login)
	row := &models.TSDTransaction{
		EmployeeLogin: holder.Login(),
		EmployeeName:  optional(in.EmployeeName),
		Company:       optional(in.Company),
		TSDNumber:     number,
		Status:        models.TSDIssued,
		OperatorID:    in.OperatorID,
	}
	if err := s.issue(ctx, row, true); err != nil {
		return nil, err
	}
	return row, nil
}

// IssueBulkForCompany issues each listed terminal to the company as a whole.
// Items run in input order and fail independently; blank numbers are skipped.
func (s *Service) IssueBulkForCompany(ctx context.Context, in BulkInput) (*BulkIssueResult, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return nil, invalid("company", "is required")
	}
	if len(in.TSDNumbers) == 0 {
		return nil, invalid("tsd_numbers", "must be a non-empty list")
	}

	holder := CompanyBulk(company)
	res := &BulkIssueResult{Issued: []models.TSDTransaction{}, Errors: []ItemError{}}
	for _, raw := range in.TSDNumbers {
		number := strings.TrimSpace(raw)
		if number == "" {
			continue
		}
		row := &models.TSDTransaction{
			EmployeeLogin: holder.Login(),
			Company:       &company,
			TSDNumber:     number,
			Status:        models.TSDIssued,
			OperatorID:    in.OperatorID,
		}
		if err := s.issue(ctx, row, false); err != nil {
			res.Errors = append(res.Errors, itemError(number, err))
			continue
		}
		res.Issued = append(res.Issued, *row)
	}
	return res, nil
}

// issue commits row, then publishes once the locks are released.
func (s *Service) issue(ctx context.Context, row *models.TSDTransaction, capped bool) error {
	if err := s.commitIssue(ctx, row, capped); err != nil {
		return err
	}
	s.publish(ctx, events.TSDIssued, row)
	return nil
}

// commitIssue runs check, cap and insert under the terminal (and holder) locks in one transaction.
func (s *Service) commitIssue(ctx context.Context, row *models.TSDTransaction, capped bool) error {
	keys := []string{tsdKey(row.TSDNumber)}
	if capped {
		keys = append(keys, employeeKey(row.EmployeeLogin))
	}
	release, err := s.lock(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.InTx(ctx, func(tx *db.Repo) error {
		cur, err := tx.FindOutstandingForUpdate(ctx, row.TSDNumber, "")
		if err != nil {
			return err
		}
		if cur != nil {
			return alreadyIssued(cur)
		}
		if capped {
			n, err := tx.CountOutstandingByLogin(ctx, row.EmployeeLogin)
			if err != nil {
				return err
			}
			if n >= MaxPerHolder {
				return &HolderLimitError{Login: row.EmployeeLogin, Count: n, Limit: MaxPerHolder}
			}
		}
		row.IssueTime = s.stamp()
		return tx.CreateTransaction(ctx, row)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 另一个进程先插入了
		row.ID = 0
		if cur, ferr := s.repo.FindOutstanding(ctx, row.TSDNumber, ""); ferr == nil && cur != nil {
			return alreadyIssued(cur)
		}
		return &AlreadyIssuedError{TSDNumber: row.TSDNumber}
	}
	if err != nil {
		row.ID = 0
		return storage("issue", err)
	}
	return nil
}
