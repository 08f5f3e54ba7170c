package tsd

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrAlreadyIssued = errors.New("terminal already issued")
	ErrHolderLimit   = errors.New("holder limit exceeded")
	ErrNotIssued     = errors.New("no active issuance for terminal")
	ErrNotFound      = errors.New("transaction not found")
	ErrForbidden     = errors.New("only an administrator may delete transactions")
	ErrStorage       = errors.New("storage failure")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// AlreadyIssuedError carries the current holder for operator feedback.
type AlreadyIssuedError struct {
	TSDNumber string
	Holder    string
	IssueTime time.Time
}

func (e *AlreadyIssuedError) Error() string {
	if e.Holder == "" {
		return fmt.Sprintf("terminal %s is already issued", e.TSDNumber)
	}
	return fmt.Sprintf("terminal %s is already issued to %s since %s",
		e.TSDNumber, e.Holder, e.IssueTime.Format(TimeLayout))
}
func (e *AlreadyIssuedError) Is(target error) bool { return target == ErrAlreadyIssued }

type HolderLimitError struct {
	Login string
	Count int64
	Limit int
}

func (e *HolderLimitError) Error() string {
	return fmt.Sprintf("employee %s already holds %d of %d terminals", e.Login, e.Count, e.Limit)
}
func (e *HolderLimitError) Is(target error) bool { return target == ErrHolderLimit }

type NotIssuedError struct {
	TSDNumber string
	Company   string
}

func (e *NotIssuedError) Error() string {
	if e.Company != "" {
		return fmt.Sprintf("no active issuance found for terminal %s under company %s", e.TSDNumber, e.Company)
	}
	return fmt.Sprintf("no active issuance found for terminal %s", e.TSDNumber)
}
func (e *NotIssuedError) Is(target error) bool { return target == ErrNotIssued }

// StorageError wraps a ledger store (or lock backend) failure. Callers decide on retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string        { return "tsd " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// storage leaves domain errors alone and wraps everything else.
func storage(op string, err error) error {
	if err == nil || isDomain(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomain(err error) bool {
	for _, e := range []error{ErrValidation, ErrAlreadyIssued, ErrHolderLimit, ErrNotIssued, ErrNotFound, ErrForbidden} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Code is a stable machine-readable name for err, used in bulk item errors and API bodies.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAlreadyIssued):
		return "already_issued"
	case errors.Is(err, ErrHolderLimit):
		return "holder_limit"
	case errors.Is(err, ErrNotIssued):
		return "not_issued"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "storage"
	}
}
