package users

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength
// or missing an upper case letter, a lower case letter or a digit.
var ErrWeakPassword = errors.New("password too weak")

const MinPasswordLength = 8

// User is an account of the development provider. Its identity claims end up
// in id tokens.
type User struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email,omitempty"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`

	// Blocked users cannot log in or refresh
	Blocked bool `json:"blocked,omitempty"`
}

// New creates a user after checking the password's strength.
func New(username, email, password string) (*User, error) {
	if err := CheckPasswordStrength(password); err != nil {
		return nil, err
	}
	u := &User{Username: username, Email: email}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

func CheckPasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: shorter than %d characters", ErrWeakPassword, MinPasswordLength)
	}
	missing := []string{}
	for class, check := range map[string]func(rune) bool{
		"an upper case letter": unicode.IsUpper,
		"a lower case letter":  unicode.IsLower,
		"a digit":              unicode.IsDigit,
	} {
		if !strings.ContainsFunc(password, check) {
			missing = append(missing, class)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: needs %s", ErrWeakPassword, strings.Join(missing, ", "))
	}
	return nil
}

// SetPassword replaces the stored bcrypt hash.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("[User SetPassword] %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Name returns the display name.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasScope(scope string) bool {
	return slices.Contains(u.Scopes, scope)
}

// Claims returns the identity claims carried by id tokens.
func (u *User) Claims() map[string]any {
	claims := map[string]any{
		"sub":                u.ID,
		"email":              u.Email,
		"name":               u.Name(),
		"preferred_username": u.Username,
	}
	if len(u.Scopes) > 0 {
		claims["scope"] = u.Scopes
	}
	return claims
}

// Version is an entity tag for the identity claims. It changes whenever a
// claim changes.
func (u *User) Version() string {
	b, _ := json.Marshal(u.Claims())
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}
