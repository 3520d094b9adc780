package domain

import "time"

// Recipient is the notification view of a user.
type Recipient struct {
	UserID               string `json:"user_id"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// DueTask is a non-completed task due on a target date joined with its course and owner.
// CourseName and UserID are empty when the course or user vanished while reading.
type DueTask struct {
	Task
	CourseName string `json:"course_name"`
	UserID     string `json:"user_id"`
}

// NotificationSnapshot is a consistent read of everything a notification run needs.
type NotificationSnapshot struct {
	Target     Date
	Recipients []Recipient
	Tasks      []DueTask
}

// OutcomeKind is the per-user result of a notification run.
type OutcomeKind string

const (
	OutcomeSent             OutcomeKind = "sent"
	OutcomeSkippedNoTasks   OutcomeKind = "skipped-no-tasks"
	OutcomeSkippedDisabled  OutcomeKind = "skipped-disabled"
	OutcomeSkippedCancelled OutcomeKind = "skipped-cancelled"
	OutcomeFailed           OutcomeKind = "failed"
)

func (k OutcomeKind) IsSkipped() bool {
	switch k {
	case OutcomeSkippedNoTasks, OutcomeSkippedDisabled, OutcomeSkippedCancelled:
		return true
	}
	return false
}

// NotificationOutcome records what happened to one user during a run.
type NotificationOutcome struct {
	UserID  string      `json:"user_id"`
	Email   string      `json:"email,omitempty"`
	TaskIDs []string    `json:"task_ids,omitempty"`
	Result  OutcomeKind `json:"result"`
	Reason  string      `json:"reason,omitempty"`
}

// RunState tracks a notification run: idle, running, completed.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
)

// RunSummary aggregates the outcomes of one notification run.
type RunSummary struct {
	RunID          string                `json:"run_id"`
	ReferenceDate  Date                  `json:"reference_date"`
	TargetDate     Date                  `json:"target_date"`
	State          RunState              `json:"state"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	UsersEvaluated int                   `json:"users_evaluated"`
	Sent           int                   `json:"sent"`
	Skipped        int                   `json:"skipped"`
	Failed         int                   `json:"failed"`
	Failure        string                `json:"failure,omitempty"`
	Outcomes       []NotificationOutcome `json:"outcomes"`
}

// Tally recomputes the per-outcome counts from Outcomes.
func (s *RunSummary) Tally() {
	s.Sent, s.Skipped, s.Failed = 0, 0, 0
	for _, o := range s.Outcomes {
		switch {
		case o.Result == OutcomeSent:
			s.Sent++
		case o.Result == OutcomeFailed:
			s.Failed++
		case o.Result.IsSkipped():
			s.Skipped++
		}
	}
}
