package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entities whose writes may be buffered. Notification runs never are.
const (
	EntityProfile = "profile"
	EntityCourse  = "course"
	EntityTask    = "task"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Lower values drain first: parents before children, deletes last.
const (
	PriorityProfile = 1
	PriorityCourse  = 2
	PriorityTask    = 3
	PriorityDelete  = 4
	maxPriority     = 5
)

// Item is a write that could not reach primary storage and waits to be replayed.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

// NewItem marshals payload into an item for entity/operation.
func NewItem(userID, entity, operation string, payload interface{}) (Item, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Item{}, err
	}
	item := Item{
		UserID:    userID,
		Entity:    entity,
		Operation: operation,
		Data:      data,
		Priority:  priorityFor(entity, operation),
	}
	item.normalize()
	return item, nil
}

// Decode unmarshals the payload into v.
func (i Item) Decode(v interface{}) error {
	return json.Unmarshal(i.Data, v)
}

func priorityFor(entity, operation string) int {
	if operation == OperationDelete {
		return PriorityDelete
	}
	switch entity {
	case EntityProfile:
		return PriorityProfile
	case EntityCourse:
		return PriorityCourse
	default:
		return PriorityTask
	}
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > maxPriority {
		i.Priority = PriorityTask
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
