package domain

import "time"

// Task represents an assignment, quiz or exam attached to a course.
type Task struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     Date       `json:"due_date"`
	Type        TaskType   `json:"task_type"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// ApplyDefaults fills the status and priority a freshly created task starts with.
func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// Validate checks the invariants every stored task must satisfy.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	switch {
	case t.Title == "":
		return NewError(ErrCodeInvalid, "task title is required")
	case t.CourseID == "":
		return NewError(ErrCodeInvalid, "task course is required")
	case t.DueDate.IsZero():
		return NewError(ErrCodeInvalid, "task due date is required")
	case !t.Type.Valid():
		return NewError(ErrCodeInvalid, "task type must be assignment, quiz or exam")
	case !t.Status.Valid():
		return NewError(ErrCodeInvalid, "task status must be pending, in-progress or completed")
	case !t.Priority.Valid():
		return NewError(ErrCodeInvalid, "task priority must be low, medium or high")
	}
	return nil
}

func (t *Task) DaysRemaining(ref Date) int {
	return ref.DaysUntil(t.DueDate)
}

func (t *Task) Urgency(ref Date) UrgencyTier {
	return ClassifyUrgency(t.DueDate, ref)
}

// TaskView is a task enriched with its course name and urgency relative to a reference date.
type TaskView struct {
	Task
	CourseName    string      `json:"course_name"`
	DaysRemaining int         `json:"days_remaining"`
	UrgencyLevel  UrgencyTier `json:"urgency_level"`
}

func NewTaskView(task Task, courseName string, ref Date) TaskView {
	return TaskView{
		Task:          task,
		CourseName:    courseName,
		DaysRemaining: task.DaysRemaining(ref),
		UrgencyLevel:  task.Urgency(ref),
	}
}
