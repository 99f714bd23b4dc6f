// Package comments manages company feedback on work sessions. Each work
// session carries at most one comment.
package comments

import (
	"errors"
	"time"

	"github.com/worktrack/worktrack/internal/authz"
)

// Comment is company feedback attached to a work session. WorkSessionID and
// CompanyID never change after creation.
type Comment struct {
	ID            int64
	WorkSessionID int64
	CompanyID     int64
	Content       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Resource returns the authorization view of the comment.
func (c Comment) Resource() authz.CommentResource {
	return authz.CommentResource{ID: c.ID, WorkSessionID: c.WorkSessionID, CompanyID: c.CompanyID}
}

var (
	// ErrNotFound indicates the comment does not exist.
	ErrNotFound = errors.New("comments: not found")
	// ErrAlreadyCommented indicates the work session already has a comment.
	ErrAlreadyCommented = errors.New("comments: work session already has a comment")
)
