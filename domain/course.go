package domain

import "time"

// Course groups the tasks of one user.
type Course struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	TaskCount int       `json:"task_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) Validate() error {
	if c == nil {
		return ErrInvalidPayload
	}
	if c.Name == "" {
		return NewError(ErrCodeInvalid, "course name is required")
	}
	if c.UserID == "" {
		return NewError(ErrCodeInvalid, "course owner is required")
	}
	return nil
}
