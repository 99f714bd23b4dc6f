package comments

import "context"

// Service handles comment business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create attaches a comment authored by the company to a work session. The
// one-comment-per-session rule is enforced by the store's unique index, so a
// race between two concurrent creates resolves to one winner and one
// ErrAlreadyCommented.
func (s *Service) Create(ctx context.Context, workSessionID, companyID int64, content string) (Comment, error) {
	return s.repo.Create(ctx, Comment{
		WorkSessionID: workSessionID,
		CompanyID:     companyID,
		Content:       content,
	})
}

// GetByID fetches a comment.
func (s *Service) GetByID(ctx context.Context, id int64) (Comment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the content of an already-loaded comment.
func (s *Service) Update(ctx context.Context, c Comment, content string) (Comment, error) {
	c.Content = content
	return s.repo.Update(ctx, c)
}

// Delete removes a comment.
func (s *Service) Delete(ctx context.Context, c Comment) error {
	return s.repo.Delete(ctx, c.ID)
}
