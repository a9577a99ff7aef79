package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Identity is what the identity provider vouches for after verifying a credential.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
