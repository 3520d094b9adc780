package domain

import (
	"net/mail"
	"time"
)

// User represents a registered student.
type User struct {
	ID                   string    `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	NotificationsEnabled bool      `json:"email_notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (u *User) Validate() error {
	if u == nil {
		return ErrInvalidPayload
	}
	if u.Username == "" {
		return NewError(ErrCodeInvalid, "username is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return WrapError(ErrCodeInvalid, "invalid email address", err)
	}
	return nil
}
