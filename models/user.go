package models

import "time"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// User is a CMS account. Groups holds the handles of the user groups the
// account belongs to.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	Admin          bool      `json:"admin"`
	Groups         []string  `json:"groups"`
	HashedPassword []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) InGroup(handle string) bool {
	for _, g := range u.Groups {
		if g == handle {
			return true
		}
	}
	return false
}
