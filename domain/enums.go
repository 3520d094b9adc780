package domain

import "fmt"

type TaskType string

const (
	TaskAssignment TaskType = "assignment"
	TaskQuiz       TaskType = "quiz"
	TaskExam       TaskType = "exam"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskAssignment, TaskQuiz, TaskExam:
		return true
	}
	return false
}

// Label returns the title-cased name used in digests.
func (t TaskType) Label() string {
	switch t {
	case TaskAssignment:
		return "Assignment"
	case TaskQuiz:
		return "Quiz"
	case TaskExam:
		return "Exam"
	}
	return string(t)
}

func ParseTaskType(value string) (TaskType, error) {
	t := TaskType(value)
	if !t.Valid() {
		return "", NewError(ErrCodeInvalid, fmt.Sprintf("unknown task type %q", value))
	}
	return t, nil
}

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func ParseTaskStatus(value string) (TaskStatus, error) {
	s := TaskStatus(value)
	if !s.Valid() {
		return "", NewError(ErrCodeInvalid, fmt.Sprintf("unknown task status %q", value))
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: high > medium > low. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func ParsePriority(value string) (Priority, error) {
	p := Priority(value)
	if !p.Valid() {
		return "", NewError(ErrCodeInvalid, fmt.Sprintf("unknown priority %q", value))
	}
	return p, nil
}
