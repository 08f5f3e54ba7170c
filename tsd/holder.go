package tsd

import (
	"strings"

	"Gin_postgres_redis_tsd_control/models"
)

type HolderKind string

const (
	HolderIndividual HolderKind = "individual"
	HolderCompany    HolderKind = "company"
)

// Holder is who a terminal is issued to: one employee, or a company as a whole.
type Holder struct {
	kind    HolderKind
	login   string
	company string
}

func Individual(login string) Holder {
	return Holder{kind: HolderIndividual, login: login}
}

func CompanyBulk(company string) Holder {
	return Holder{kind: HolderCompany, company: company}
}

// HolderOf decodes the persisted employee_login column.
func HolderOf(t models.TSDTransaction) Holder {
	if t.IsCompanyHolder() {
		return CompanyBulk(t.CompanyName())
	}
	return Individual(t.EmployeeLogin)
}

func (h Holder) Kind() HolderKind { return h.kind }
func (h Holder) Company() string  { return h.company }

// Login is the value stored in employee_login.
func (h Holder) Login() string {
	if h.kind == HolderCompany {
		return models.CompanyHolderLogin
	}
	return h.login
}

func isSentinel(login string) bool {
	return strings.EqualFold(strings.TrimSpace(login), models.CompanyHolderLogin)
}
