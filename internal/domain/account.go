package domain

import "time"

// AccountRole enumerates supported roles.
type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleAdmin AccountRole = "admin"
)

// Account represents a registered user and their coin balance.
type Account struct {
	ID        string
	Email     string
	Name      string
	Role      AccountRole
	Coins     int
	Suspended bool
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the account carries the admin role.
func (a Account) IsAdmin() bool {
	return a.Role == AccountRoleAdmin
}
