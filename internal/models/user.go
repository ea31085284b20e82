package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/maestro/internal/shared"
)

// User is an account that owns playlists.
type User struct {
	timestamps

	id           string
	sequence     int
	email        string
	name         string
	passwordHash string
}

// NewUser creates a new user with the given sequence, email and display name.
func NewUser(sequence int, email, name string) *User {
	return &User{
		timestamps: newTimestamps(),
		sequence:   sequence,
		email:      strings.ToLower(strings.TrimSpace(email)),
		name:       strings.TrimSpace(name),
	}
}

func (u *User) ID() string { return u.id }
func (u *User) SetID(id string) { u.id = id }
func (u *User) Sequence() int { return u.sequence }
func (u *User) SetSequence(sequence int) { u.sequence = sequence }
func (u *User) Email() string { return u.email }
func (u *User) Name() string { return u.name }
func (u *User) SetName(name string) { u.name = strings.TrimSpace(name) }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }

// Validate checks that the user has an email address and a display name.
func (u *User) Validate() error {
	if u.email == "" || !strings.Contains(u.email, "@") {
		return fmt.Errorf("%w: a valid email is required", shared.ErrValidation)
	}
	if u.name == "" {
		return fmt.Errorf("%w: display name is required", shared.ErrValidation)
	}
	return nil
}
