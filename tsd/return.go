package tsd

import (
	"context"
	"strings"

	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/events"
	"Gin_postgres_redis_tsd_control/models"
)

type BulkReturnResult struct {
	Returned []models.TSDTransaction `json:"returned"`
	Errors   []ItemError             `json:"errors"`
}

// ReturnOne closes the outstanding issuance of a terminal.
func (s *Service) ReturnOne(ctx context.Context, tsdNumber string) (*models.TSDTransaction, error) {
	number := strings.TrimSpace(tsdNumber)
	if number == "" {
		return nil, invalid("tsd_number", "is required")
	}
	return s.giveBack(ctx, number, "")
}

// ReturnBulkForCompany returns terminals issued under company; a terminal outstanding
// under another company is reported as not issued.
func (s *Service) ReturnBulkForCompany(ctx context.Context, in BulkInput) (*BulkReturnResult, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return nil, invalid("company", "is required")
	}
	if len(in.TSDNumbers) == 0 {
		return nil, invalid("tsd_numbers", "must be a non-empty list")
	}

	res := &BulkReturnResult{Returned: []models.TSDTransaction{}, Errors: []ItemError{}}
	for _, raw := range in.TSDNumbers {
		number := strings.TrimSpace(raw)
		if number == "" {
			continue
		}
		t, err := s.giveBack(ctx, number, company)
		if err != nil {
			res.Errors = append(res.Errors, itemError(number, err))
			continue
		}
		res.Returned = append(res.Returned, *t)
	}
	return res, nil
}

func (s *Service) giveBack(ctx context.Context, number, company string) (*models.TSDTransaction, error) {
	out, err := s.commitReturn(ctx, number, company)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TSDReturned, out)
	return out, nil
}

func (s *Service) commitReturn(ctx context.Context, number, company string) (*models.TSDTransaction, error) {
	release, err := s.lock(ctx, tsdKey(number))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.TSDTransaction
	err = s.repo.InTx(ctx, func(tx *db.Repo) error {
		cur, err := tx.FindOutstandingForUpdate(ctx, number, company)
		if err != nil {
			return err
		}
		if cur == nil {
			return &NotIssuedError{TSDNumber: number, Company: company}
		}
		ok, err := tx.MarkReturned(ctx, cur.ID, s.stamp())
		if err != nil {
			return err
		}
		if !ok {
			return &NotIssuedError{TSDNumber: number, Company: company}
		}
		out, err = tx.FindTransaction(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, storage("return", err)
	}
	return out, nil
}
