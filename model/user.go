package model

import (
	"time"

	"github.com/gofrs/uuid"
)

// AuthProvider identifies how an account authenticates.
type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
)

type User struct {
	ID           string       `json:"-"`
	Email        string       `json:"email"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Picture      string       `json:"picture,omitempty"`
	PasswordHash string       `json:"-"`
	AuthProvider AuthProvider `json:"auth_provider"`
	CreatedAt    time.Time    `json:"created_at"`
}

func NewUser(email, firstName, lastName, passwordHash string, provider AuthProvider) *User {
	return &User{
		ID:           uuid.Must(uuid.NewV4()).String(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		AuthProvider: provider,
		CreatedAt:    time.Now().UTC(),
	}
}

// UserPublic is the subset of a user profile exposed to other users, e.g.
// as a form's creator.
type UserPublic struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u *User) Public() *UserPublic {
	return &UserPublic{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
