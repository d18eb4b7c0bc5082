package models

import "time"

type User struct {
	UserID       string    `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type UserCreate struct {
	Username string `validate:"required,min=3,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// UserUpdate carries a partial update: nil fields are left untouched.
type UserUpdate struct {
	Username *string `validate:"omitempty,min=3,max=64"`
	Email    *string `validate:"omitempty,email"`
	Password *string `validate:"omitempty,min=8"`
	IsActive *bool
}

type UserFilter struct {
	Skip     uint64
	Limit    uint64
	Username string
}
