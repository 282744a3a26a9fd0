package partner

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// AccountStatus represents the status of a customer account
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "Active"
	AccountStatusInactive AccountStatus = "Inactive"
	AccountStatusPending  AccountStatus = "Pending"
)

// IsValid checks if the status is known
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusPending:
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Customer is the buyer an order is placed for. Customers are maintained
// elsewhere; the ledger only reads them.
type Customer struct {
	shared.BaseEntity
	FullName      string
	Email         string
	Phone         string
	AccountStatus AccountStatus
}

// NewCustomer creates a new customer in the Active status
func NewCustomer(fullName, email, phone string) (*Customer, error) {
	verr := &shared.ValidationError{}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || len(fullName) > 200 {
		verr.Add("full_name", "must be 1-200 characters")
	}
	if email != "" && !emailPattern.MatchString(email) {
		verr.Add("email", "is not a valid address")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return &Customer{
		BaseEntity:    shared.NewBaseEntity(),
		FullName:      fullName,
		Email:         strings.ToLower(email),
		Phone:         phone,
		AccountStatus: AccountStatusActive,
	}, nil
}

// CanOrder reports whether orders may be placed for the customer
func (c *Customer) CanOrder() bool {
	return c.AccountStatus == AccountStatusActive
}

// CustomerRepository defines the interface for customer lookups
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
