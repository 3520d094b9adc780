// Package memory is an in-process implementation of the repository interfaces.
package memory

import (
	"sync"
	"time"

	"github.com/fastygo/studytracker/domain"
)

// DB holds all tables behind one lock so cascades are atomic.
type DB struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	courses  map[string]*domain.Course
	tasks    map[string]*domain.Task
	sessions map[string]*domain.Session
	runs     []domain.RunSummary

	// failure, when set, is returned by every read and write.
	failure error
	now     func() time.Time
}

func Open() *DB {
	return &DB{
		users:    make(map[string]*domain.User),
		courses:  make(map[string]*domain.Course),
		tasks:    make(map[string]*domain.Task),
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// FailWith makes every subsequent operation return err; nil restores normal behavior.
func (db *DB) FailWith(err error) {
	db.mu.Lock()
	db.failure = err
	db.mu.Unlock()
}

func (db *DB) touch(created, updated *time.Time) {
	now := db.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// deleteCourseLocked removes a course and its tasks; callers hold the write lock.
func (db *DB) deleteCourseLocked(id string) {
	for taskID, t := range db.tasks {
		if t.CourseID == id {
			delete(db.tasks, taskID)
		}
	}
	delete(db.courses, id)
}
