package notification

import (
	"fmt"

	"github.com/fastygo/studytracker/domain"
)

// DigestItem is one task line of a digest.
type DigestItem struct {
	TaskID      string          `json:"task_id"`
	Title       string          `json:"title"`
	Priority    domain.Priority `json:"priority"`
	CourseName  string          `json:"course_name"`
	Type        domain.TaskType `json:"task_type"`
	Description string          `json:"description,omitempty"`
}

// Digest is the batched reminder for a single user.
type Digest struct {
	Recipient domain.Recipient `json:"recipient"`
	DueDate   domain.Date      `json:"due_date"`
	Subject   string           `json:"subject"`
	Summary   string           `json:"summary"`
	Items     []DigestItem     `json:"items"`
}

func (d Digest) TaskIDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.TaskID)
	}
	return ids
}

// Compose builds the digest for an already ordered, non-empty task list.
func Compose(recipient domain.Recipient, due domain.Date, tasks []domain.DueTask) (Digest, error) {
	if len(tasks) == 0 {
		return Digest{}, domain.ErrEmptyDigest
	}

	items := make([]DigestItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, DigestItem{
			TaskID:      t.ID,
			Title:       t.Title,
			Priority:    t.Priority,
			CourseName:  t.CourseName,
			Type:        t.Type,
			Description: t.Description,
		})
	}

	count := countTasks(len(tasks))
	return Digest{
		Recipient: recipient,
		DueDate:   due,
		Subject:   fmt.Sprintf("Task Reminder: %s due tomorrow!", count),
		Summary:   fmt.Sprintf("You have %s due tomorrow", count),
		Items:     items,
	}, nil
}

func countTasks(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}
