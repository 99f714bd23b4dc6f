package worksessions

import (
	"context"
	"time"
)

// CreateParams carries the caller-supplied fields for a new session.
type CreateParams struct {
	StartTime   time.Time
	EndTime     time.Time
	Description string
}

// UpdateParams carries the mutable fields of an existing session.
type UpdateParams struct {
	StartTime   time.Time
	EndTime     time.Time
	Description string
}

// Service handles work session business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a new session owned by the given student.
func (s *Service) Create(ctx context.Context, studentID int64, params CreateParams) (WorkSession, error) {
	if !params.EndTime.After(params.StartTime) {
		return WorkSession{}, ErrInvalidTimeRange
	}
	return s.repo.Create(ctx, WorkSession{
		StudentID:   studentID,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Description: params.Description,
	})
}

// GetByID fetches a session.
func (s *Service) GetByID(ctx context.Context, id int64) (WorkSession, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForStudent returns a student's sessions.
func (s *Service) ListForStudent(ctx context.Context, studentID int64) ([]WorkSession, error) {
	return s.repo.ListForStudent(ctx, studentID)
}

// Update applies the mutable fields to an already-loaded session.
func (s *Service) Update(ctx context.Context, ws WorkSession, params UpdateParams) (WorkSession, error) {
	if !params.EndTime.After(params.StartTime) {
		return WorkSession{}, ErrInvalidTimeRange
	}
	ws.StartTime = params.StartTime
	ws.EndTime = params.EndTime
	ws.Description = params.Description
	return s.repo.Update(ctx, ws)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, ws WorkSession) error {
	return s.repo.Delete(ctx, ws.ID)
}

// Verify marks a session verified. Verifying an already-verified session is a
// no-op success; the flag never goes back to false.
func (s *Service) Verify(ctx context.Context, ws WorkSession) (WorkSession, error) {
	if !ws.Verified {
		if err := s.repo.MarkVerified(ctx, ws.ID); err != nil {
			return WorkSession{}, err
		}
		ws.Verified = true
	}
	return ws, nil
}
