// Package worksessions manages time-tracked work sessions owned by students
// and verified by their supervising company.
package worksessions

import (
	"errors"
	"time"

	"github.com/worktrack/worktrack/internal/authz"
)

// WorkSession is a tracked block of work. The owning student never changes
// after creation, and Verified transitions false to true exactly once.
type WorkSession struct {
	ID          int64
	StudentID   int64
	StartTime   time.Time
	EndTime     time.Time
	Verified    bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resource returns the authorization view of the work session.
func (ws WorkSession) Resource() authz.WorkSessionResource {
	return authz.WorkSessionResource{ID: ws.ID, StudentID: ws.StudentID}
}

var (
	// ErrNotFound indicates the work session does not exist.
	ErrNotFound = errors.New("worksessions: not found")
	// ErrInvalidTimeRange indicates the end does not come after the start.
	ErrInvalidTimeRange = errors.New("worksessions: end must be after start")
)
