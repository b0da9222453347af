package identity

import "time"

// Role decides what a signed-in user may do.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleEmployee Role = "EMPLOYEE"
)

// User is an account that can sign in. Customers own wallets, employees
// review and decide transactions.
type User struct {
	ID           int64
	Username     string
	Role         Role
	PasswordHash []byte
	FirstName    string
	LastName     string
	TCKN         string
	TokenVersion int
	CreatedAt    time.Time
}

// Principal returns the identity attached to authenticated requests.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Credentials request structure.
type Credentials struct {
	Username string
	Password string
}

// CustomerInput carries the data needed to onboard a customer.
type CustomerInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	TCKN      string
}

// Principal is the caller on whose behalf an operation runs.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
}

func (p Principal) IsEmployee() bool {
	return p.Role == RoleEmployee
}
