// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36
	MaxLanguageLen = 8
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrBadLanguage     = errors.New("bad language code")
)

type UserID string

// DefaultLanguage is assumed for users who never picked one.
const DefaultLanguage = "en"

type User struct {
	ID        UserID    `json:"id"`
	Username  string    `json:"username"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username, language string) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if language == "" {
		language = DefaultLanguage
	}
	if len(language) > MaxLanguageLen {
		return nil, ErrBadLanguage
	}
	id := UserID(uuid.NewString())
	return &User{ID: id, Username: username, Language: language, CreatedAt: time.Now().UTC()}, nil
}

func (u *User) SetLanguage(language string) error {
	if language == "" || len(language) > MaxLanguageLen {
		return ErrBadLanguage
	}
	u.Language = language
	return nil
}
