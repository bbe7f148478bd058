package models

import "time"

// User represents a registered resident of the mess.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"user_id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address (unique).
	// Used for login.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last change to the account.
	UpdatedAt int64 `json:"updated_at"`
}

// NewUser creates a new User with timestamps set to now.
// The ID is assigned by the store on insert.
func NewUser(name, email, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
