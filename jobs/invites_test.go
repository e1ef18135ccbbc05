package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/auth"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubInviteStore struct {
	invites  []auth.PendingInvite
	listErr  error
	marked   []string
	markErr  error
	scopeCtx context.Context
}

func (s *stubInviteStore) ListPendingInvites(ctx context.Context, _ int) ([]auth.PendingInvite, error) {
	s.scopeCtx = ctx
	return s.invites, s.listErr
}

func (s *stubInviteStore) MarkInviteSent(_ context.Context, userID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, userID)
	return nil
}

type stubEnqueuer struct {
	payloads []SendEmailPayload
	err      error
}

func (s *stubEnqueuer) EnqueueSendEmail(_ context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

func newProcessor(store InviteStore, enqueuer Enqueuer) *InviteProcessor {
	return NewInviteProcessor(store, enqueuer, slog.Default(), nil, "http://localhost:8080/auth/activate")
}

func TestInviteSweepMailsAndMarks(t *testing.T) {
	store := &stubInviteStore{invites: []auth.PendingInvite{
		{UserID: "u-1", Email: "parent1@mail.lk", Token: "tok-1"},
		{UserID: "u-2", Email: "parent2@mail.lk", Token: "tok-2"},
	}}
	enqueuer := &stubEnqueuer{}

	err := newProcessor(store, enqueuer).Handle(context.Background(), NewInviteProcessTask())
	require.NoError(t, err)

	require.Len(t, enqueuer.payloads, 2)
	assert.Equal(t, "parent1@mail.lk", enqueuer.payloads[0].To)
	assert.Contains(t, enqueuer.payloads[0].Body, "http://localhost:8080/auth/activate?token=tok-1")
	assert.Equal(t, []string{"u-1", "u-2"}, store.marked)
}

func TestInviteSweepRunsUnderSystemScope(t *testing.T) {
	store := &stubInviteStore{}

	err := newProcessor(store, &stubEnqueuer{}).Handle(context.Background(), NewInviteProcessTask())
	require.NoError(t, err)
	require.NotNil(t, store.scopeCtx)
	assert.True(t, secctx.From(store.scopeCtx).IsSystem)
}

func TestInviteSweepEnqueueFailureSkipsMark(t *testing.T) {
	store := &stubInviteStore{invites: []auth.PendingInvite{
		{UserID: "u-1", Email: "parent1@mail.lk", Token: "tok-1"},
	}}
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}

	err := newProcessor(store, enqueuer).Handle(context.Background(), NewInviteProcessTask())
	require.NoError(t, err)
	assert.Empty(t, store.marked)
}

func TestInviteSweepListFailure(t *testing.T) {
	store := &stubInviteStore{listErr: errors.New("db down")}

	err := newProcessor(store, &stubEnqueuer{}).Handle(context.Background(), NewInviteProcessTask())
	require.Error(t, err)
}
