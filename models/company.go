package models

type Company struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"uniqueIndex;size:255;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

func (Company) TableName() string { return "companies" }
