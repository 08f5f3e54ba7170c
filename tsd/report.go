package tsd

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_tsd_control/models"
)

const (
	DefaultLimit = 1000
	dateLayout   = "2006-01-02"
)

// HistoryQuery holds raw filter values as they arrive from a caller.
type HistoryQuery struct {
	StartDate     string
	EndDate       string
	Status        string
	EmployeeLogin string
	TSDNumber     string
	Limit         int
	Offset        int
}

type HistoryPage struct {
	History []models.TSDTransaction `json:"history"`
	Total   int64                   `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

var statusLabels = map[models.TSDStatus]string{
	models.TSDIssued:   "On hand",
	models.TSDReturned: "Returned",
}

func StatusLabel(s models.TSDStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// StatusFromLabel maps an export label back to its status.
func StatusFromLabel(label string) (models.TSDStatus, bool) {
	for s, l := range statusLabels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return s, true
		}
	}
	return "", false
}

// ParseStatus accepts the raw enum or its export label; "" means any status.
func ParseStatus(v string) (models.TSDStatus, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if s := models.TSDStatus(strings.ToLower(v)); s.Valid() {
		return s, nil
	}
	if s, ok := StatusFromLabel(v); ok {
		return s, nil
	}
	return "", invalid("status", "must be issued or returned")
}

func parseDay(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return nil, invalid(field, "must be YYYY-MM-DD")
	}
	return &d, nil
}

// Filter turns the raw query into store bounds; both dates are inclusive calendar days.
func (q HistoryQuery) Filter() (models.HistoryFilter, error) {
	var f models.HistoryFilter
	from, err := parseDay("startDate", q.StartDate)
	if err != nil {
		return f, err
	}
	end, err := parseDay("endDate", q.EndDate)
	if err != nil {
		return f, err
	}
	status, err := ParseStatus(q.Status)
	if err != nil {
		return f, err
	}
	f.From = from
	if end != nil {
		until := end.AddDate(0, 0, 1)
		f.Until = &until
	}
	f.Status = status
	f.EmployeeLogin = strings.TrimSpace(q.EmployeeLogin)
	f.TSDNumber = strings.TrimSpace(q.TSDNumber)
	return f, nil
}

func (s *Service) History(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	f, err := q.Filter()
	if err != nil {
		return nil, err
	}
	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, total, err := s.repo.ListTransactions(ctx, f, limit, offset)
	if err != nil {
		return nil, storage("history", err)
	}
	if rows == nil {
		rows = []models.TSDTransaction{}
	}
	return &HistoryPage{History: rows, Total: total, Limit: limit, Offset: offset}, nil
}

// Stats aggregates per company. Managers only ever see their own company.
func (s *Service) Stats(ctx context.Context, user models.CurrentUser, company string) ([]models.CompanyStat, error) {
	company = strings.TrimSpace(company)
	if user.Role == models.RoleManager {
		if user.CompanyID == nil || s.companies == nil {
			return []models.CompanyStat{}, nil
		}
		name, err := s.companies.CompanyName(ctx, *user.CompanyID)
		if err != nil {
			return nil, storage("stats", err)
		}
		if name == "" {
			return []models.CompanyStat{}, nil
		}
		company = name
	}

	stats, err := s.repo.CompanyStats(ctx, company)
	if err != nil {
		return nil, storage("stats", err)
	}
	if stats == nil {
		stats = []models.CompanyStat{}
	}
	return stats, nil
}

var ExportHeader = []string{
	"ID", "Issue time", "Employee login", "Full name", "Company", "Terminal number", "Return time", "Status",
}

// ExportCSV writes every matching row (pagination ignored) as CSV with a UTF-8 BOM.
func (s *Service) ExportCSV(ctx context.Context, q HistoryQuery, w io.Writer) error {
	f, err := q.Filter()
	if err != nil {
		return err
	}
	rows, _, err := s.repo.ListTransactions(ctx, f, 0, 0)
	if err != nil {
		return storage("export", err)
	}

	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, t := range rows {
		if err := cw.Write(exportRecord(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRecord(t models.TSDTransaction) []string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	returned := ""
	if t.ReturnTime != nil {
		returned = t.ReturnTime.Local().Format(TimeLayout)
	}
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		t.IssueTime.Local().Format(TimeLayout),
		t.EmployeeLogin,
		deref(t.EmployeeName),
		deref(t.Company),
		t.TSDNumber,
		returned,
		StatusLabel(t.Status),
	}
}
