package transport

type RegisterRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	NotificationsEnabled *bool  `json:"email_notifications_enabled"`
}

type LoginRequest struct {
	Username string `json:"username"`
}

type ProfileUpdateRequest struct {
	Email                *string `json:"email"`
	NotificationsEnabled *bool   `json:"email_notifications_enabled"`
}

type CourseRequest struct {
	Name string `json:"name"`
}

// TaskRequest creates a task. DueDate is a calendar date (YYYY-MM-DD).
type TaskRequest struct {
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	TaskType    string `json:"task_type"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// TaskUpdateRequest changes task state; other fields are immutable.
type TaskUpdateRequest struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

// RunRequest triggers a notification run; Date defaults to today.
type RunRequest struct {
	Date string `json:"date"`
}
