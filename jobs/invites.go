package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/campusgate/campusgate/internal/auth"
	jobmetrics "github.com/campusgate/campusgate/internal/jobs"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// InviteStore is the slice of the auth repository the invite sweep needs.
type InviteStore interface {
	ListPendingInvites(ctx context.Context, limit int) ([]auth.PendingInvite, error)
	MarkInviteSent(ctx context.Context, userID string) error
}

// Enqueuer submits follow-up tasks from inside a handler.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// InviteProcessor mails pending account invites in small batches. It runs
// on a schedule under a system scope since no request principal exists.
type InviteProcessor struct {
	store       InviteStore
	enqueuer    Enqueuer
	logger      *slog.Logger
	metrics     *jobmetrics.Metrics
	activateURL string
	batchSize   int
}

func NewInviteProcessor(store InviteStore, enqueuer Enqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics, activateURL string) *InviteProcessor {
	return &InviteProcessor{
		store:       store,
		enqueuer:    enqueuer,
		logger:      logger,
		metrics:     metrics,
		activateURL: activateURL,
		batchSize:   10,
	}
}

// Handle processes one TaskTypeInviteProcess tick.
func (p *InviteProcessor) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := p.metrics.Track("invite_process")
	defer func() { err = tracker.End(err) }()

	ctx = secctx.System(ctx)

	invites, err := p.store.ListPendingInvites(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending invites: %w", err)
	}
	if len(invites) == 0 {
		return nil
	}

	processed := 0
	for _, invite := range invites {
		_, err := p.enqueuer.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      invite.Email,
			Subject: "Activate your school account",
			Body: fmt.Sprintf(
				"An account has been created for you.\n\nActivate it here: %s?token=%s\n\nThe link expires in 24 hours.",
				p.activateURL, invite.Token),
		})
		if err != nil {
			p.logger.Warn("enqueue invite mail failed", "user_id", invite.UserID, "error", err)
			continue
		}
		if err := p.store.MarkInviteSent(ctx, invite.UserID); err != nil {
			p.logger.Warn("mark invite sent failed", "user_id", invite.UserID, "error", err)
		}
		processed++
	}
	p.metrics.AddInvitesProcessed(processed)
	p.logger.Info("invite sweep complete", "processed", processed)
	return nil
}
