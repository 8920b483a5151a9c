package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrUserIDEmpty         = errors.New("user ID cannot be empty")
	ErrEmailEmpty          = errors.New("email cannot be empty")
	ErrEmailInvalid        = errors.New("invalid email format")
	ErrDisplayNameTooLong  = errors.New("display name must be at most 100 characters")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrHashedPasswordEmpty = errors.New("hashed password cannot be empty")
)

// User represents a registered account. The plaintext Password field is only
// populated transiently during registration and password changes; callers
// must hash it before the user reaches a store.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	Password       string    `json:"-"` // transient plaintext, never persisted
	HashedPassword string    `json:"-"` // never exposed in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address. Emails are stored
// in this form, so every lookup by email must pass through it too.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a new User with the given email, display name, and
// plaintext password. It generates the ID and timestamps and validates the
// result. The caller is responsible for hashing the password before storage.
func NewUser(email, displayName, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:          uuid.New(),
		Email:       NormalizeEmail(email),
		DisplayName: strings.TrimSpace(displayName),
		Password:    password,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrEmailEmpty
	}

	if !validEmailFormat(u.Email) {
		return ErrEmailInvalid
	}

	if len(u.DisplayName) > 100 {
		return ErrDisplayNameTooLong
	}

	if u.Password != "" {
		if len(u.Password) < 12 {
			return ErrPasswordTooShort
		}
		// bcrypt truncates input beyond 72 bytes.
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Users loaded from the store carry only the hash.
		return ErrPasswordEmpty
	}

	return nil
}

// validEmailFormat performs a structural check: one @, a non-empty local
// part, and a domain containing an interior dot. Full RFC 5322 validation is
// left to the request layer's validator.
func validEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
