// models/tsd_transaction.go
package models

import (
	"strings"
	"time"
)

const TSDTransactionTable = "tsd_transactions"

// CompanyHolderLogin is the persisted employee_login of a company-level (bulk) issuance.
const CompanyHolderLogin = "BRIGADIER"

type TSDStatus string

const (
	TSDIssued   TSDStatus = "issued"
	TSDReturned TSDStatus = "returned"
)

func (s TSDStatus) Valid() bool { return s == TSDIssued || s == TSDReturned }

// TSDTransaction 一次终端借出记录；归还只更新 return_time / status
type TSDTransaction struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	IssueTime     time.Time  `gorm:"not null;index" json:"issue_time"`
	EmployeeLogin string     `gorm:"size:120;not null;index" json:"employee_login"`
	EmployeeName  *string    `gorm:"size:255" json:"employee_name"`
	Company       *string    `gorm:"size:255;index" json:"company"`
	TSDNumber     string     `gorm:"column:tsd_number;size:120;not null;index" json:"tsd_number"`
	ReturnTime    *time.Time `json:"return_time"`
	Status        TSDStatus  `gorm:"size:16;not null;default:'issued';index" json:"status"`
	OperatorID    *uint      `json:"operator_id"`
}

func (TSDTransaction) TableName() string { return TSDTransactionTable }

func (t TSDTransaction) IsCompanyHolder() bool {
	return strings.EqualFold(t.EmployeeLogin, CompanyHolderLogin)
}

// CompanyName returns the captured company or "".
func (t TSDTransaction) CompanyName() string {
	if t.Company == nil {
		return ""
	}
	return *t.Company
}

// HolderLabel is what users see as the current holder.
func (t TSDTransaction) HolderLabel() string {
	if t.EmployeeName != nil && *t.EmployeeName != "" {
		return *t.EmployeeName
	}
	return t.EmployeeLogin
}

// HistoryFilter 历史查询条件；空字段表示不过滤
type HistoryFilter struct {
	From          *time.Time // issue_time >= From
	Until         *time.Time // issue_time <  Until
	Status        TSDStatus
	EmployeeLogin string // substring
	TSDNumber     string // substring
}

type CompanyStat struct {
	Company            string   `json:"company"`
	IssuedCount        int64    `json:"issued_count"`
	ReturnedCount      int64    `json:"returned_count"`
	IssuedTSDNumbers   []string `gorm:"-" json:"issued_tsd_numbers"`
	CompanyIssuedCount int64    `json:"company_issued_count"`
}
