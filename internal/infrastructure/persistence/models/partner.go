package models

import (
	"github.com/wims/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for customers
type CustomerModel struct {
	BaseModel
	FullName      string `gorm:"type:varchar(200);not null"`
	Email         string `gorm:"type:varchar(254);index"`
	Phone         string `gorm:"type:varchar(20)"`
	AccountStatus string `gorm:"type:varchar(10);not null;default:'Active'"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity:    m.BaseModel.Entity(),
		FullName:      m.FullName,
		Email:         m.Email,
		Phone:         m.Phone,
		AccountStatus: partner.AccountStatus(m.AccountStatus),
	}
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		FullName:      c.FullName,
		Email:         c.Email,
		Phone:         c.Phone,
		AccountStatus: string(c.AccountStatus),
	}
	m.SetEntity(c.BaseEntity)
	return m
}
