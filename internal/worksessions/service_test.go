package worksessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memorySessionRepo struct {
	sessions map[int64]WorkSession
	nextID   int64
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[int64]WorkSession)}
}

func (r *memorySessionRepo) Create(ctx context.Context, ws WorkSession) (WorkSession, error) {
	r.nextID++
	ws.ID = r.nextID
	ws.CreatedAt = time.Now()
	ws.UpdatedAt = ws.CreatedAt
	r.sessions[ws.ID] = ws
	return ws, nil
}

func (r *memorySessionRepo) GetByID(ctx context.Context, id int64) (WorkSession, error) {
	ws, ok := r.sessions[id]
	if !ok {
		return WorkSession{}, ErrNotFound
	}
	return ws, nil
}

func (r *memorySessionRepo) ListForStudent(ctx context.Context, studentID int64) ([]WorkSession, error) {
	var out []WorkSession
	for _, ws := range r.sessions {
		if ws.StudentID == studentID {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (r *memorySessionRepo) Update(ctx context.Context, ws WorkSession) (WorkSession, error) {
	if _, ok := r.sessions[ws.ID]; !ok {
		return WorkSession{}, ErrNotFound
	}
	r.sessions[ws.ID] = ws
	return ws, nil
}

func (r *memorySessionRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepo) MarkVerified(ctx context.Context, id int64) error {
	ws, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	ws.Verified = true
	r.sessions[id] = ws
	return nil
}

func validParams() CreateParams {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return CreateParams{
		StartTime:   start,
		EndTime:     start.Add(8 * time.Hour),
		Description: "assembly line",
	}
}

func TestCreateWorkSession(t *testing.T) {
	svc := NewService(newMemorySessionRepo())

	ws, err := svc.Create(context.Background(), 1, validParams())
	require.NoError(t, err)
	require.EqualValues(t, 1, ws.StudentID)
	require.False(t, ws.Verified)
}

func TestCreateRejectsBadTimeRange(t *testing.T) {
	svc := NewService(newMemorySessionRepo())

	params := validParams()
	params.EndTime = params.StartTime
	_, err := svc.Create(context.Background(), 1, params)
	require.ErrorIs(t, err, ErrInvalidTimeRange)

	params.EndTime = params.StartTime.Add(-time.Hour)
	_, err = svc.Create(context.Background(), 1, params)
	require.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestUpdateKeepsOwnerAndVerification(t *testing.T) {
	repo := newMemorySessionRepo()
	svc := NewService(repo)

	ws, err := svc.Create(context.Background(), 1, validParams())
	require.NoError(t, err)
	require.NoError(t, repo.MarkVerified(context.Background(), ws.ID))
	ws, err = svc.GetByID(context.Background(), ws.ID)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), ws, UpdateParams{
		StartTime:   ws.StartTime.Add(time.Hour),
		EndTime:     ws.EndTime.Add(time.Hour),
		Description: "late shift",
	})
	require.NoError(t, err)
	require.Equal(t, ws.StudentID, updated.StudentID)
	require.True(t, updated.Verified)
	require.Equal(t, "late shift", updated.Description)
}

func TestVerifyTransitionsOnce(t *testing.T) {
	repo := newMemorySessionRepo()
	svc := NewService(repo)

	ws, err := svc.Create(context.Background(), 1, validParams())
	require.NoError(t, err)

	verified, err := svc.Verify(context.Background(), ws)
	require.NoError(t, err)
	require.True(t, verified.Verified)

	// Verifying again is a no-op success.
	again, err := svc.Verify(context.Background(), verified)
	require.NoError(t, err)
	require.True(t, again.Verified)
}

func TestDeleteMissingSession(t *testing.T) {
	svc := NewService(newMemorySessionRepo())
	err := svc.Delete(context.Background(), WorkSession{ID: 99})
	require.ErrorIs(t, err, ErrNotFound)
}
