package tsd

import (
	"context"
	"log"
	"strings"
	"time"
)

type CodeType string

const (
	CodeEmployee CodeType = "employee"
	CodeTerminal CodeType = "tsd"
)

// StatusAvailable marks a terminal with no outstanding issuance.
const StatusAvailable = "available"

// Classification is what a scanned code turned out to be.
// Employee fields and terminal fields are mutually exclusive.
type Classification struct {
	Type CodeType `json:"type"`

	Login string `json:"login,omitempty"`
	Name  string `json:"name,omitempty"`

	TSDNumber     string     `json:"tsd_number,omitempty"`
	Status        string     `json:"status,omitempty"`
	Holder        HolderKind `json:"holder,omitempty"`
	EmployeeLogin string     `json:"employee_login,omitempty"`
	EmployeeName  *string    `json:"employee_name,omitempty"`
	IssueTime     *time.Time `json:"issue_time,omitempty"`

	Company *string `json:"company,omitempty"`
}

// Classify resolves a scanned code: a known employee first, then an outstanding
// terminal, otherwise a free terminal.
func (s *Service) Classify(ctx context.Context, code string) (*Classification, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("code", "is required")
	}

	if s.employees != nil {
		e, ok, err := s.employees.Lookup(code)
		switch {
		case err != nil:
			// 员工表读不了就当作终端处理
			log.Printf("[tsd] employee lookup %q: %v", code, err)
		case ok:
			c := &Classification{Type: CodeEmployee, Login: e.Code, Name: e.DisplayName()}
			if e.Company != "" {
				company := e.Company
				c.Company = &company
			}
			return c, nil
		}
	}

	cur, err := s.repo.FindOutstanding(ctx, code, "")
	if err != nil {
		return nil, storage("classify", err)
	}
	if cur == nil {
		return &Classification{Type: CodeTerminal, TSDNumber: code, Status: StatusAvailable}, nil
	}
	issued := cur.IssueTime
	return &Classification{
		Type:          CodeTerminal,
		TSDNumber:     cur.TSDNumber,
		Status:        string(cur.Status),
		Holder:        HolderOf(*cur).Kind(),
		EmployeeLogin: cur.EmployeeLogin,
		EmployeeName:  cur.EmployeeName,
		IssueTime:     &issued,
		Company:       cur.Company,
	}, nil
}
