package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in PasswordHash; email is unique and
// compared exactly as stored.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Location     string
	CreatedAt    time.Time
}

// PublicUser is the projection of User that is safe to return to clients.
type PublicUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips credential material from the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

// ProfileFields carries a partial profile update. Nil fields are left untouched.
type ProfileFields struct {
	Name     *string
	Phone    *string
	Location *string
}

// Empty reports whether no recognized field was supplied.
func (f ProfileFields) Empty() bool {
	return f.Name == nil && f.Phone == nil && f.Location == nil
}
