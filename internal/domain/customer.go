package domain

import "time"

const (
	RoleBuyer  = "buyer"
	RoleFarmer = "farmer"
)

// Customer represents a registered marketplace account, buyer or farmer.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c Customer) IsFarmer() bool {
	return c.Role == RoleFarmer
}
