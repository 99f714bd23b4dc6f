package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/hibiken/asynq"
)

// Worker wraps the Asynq server processing queued tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Mailer    *Mailer
	Handlers  []TaskHandler
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Mailer == nil {
		return nil, errors.New("jobs: worker requires a mailer")
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, cfg.Mailer.HandleSendEmail)
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client  *asynq.Client
	baseURL string
}

// NewClient constructs an Asynq client. baseURL is the public address used
// to build verification links.
func NewClient(redisOpts asynq.RedisClientOpt, baseURL string) *Client {
	return &Client{client: asynq.NewClient(redisOpts), baseURL: baseURL}
}

// EnqueueVerificationEmail queues the email a fresh account must act on
// before logging in.
func (c *Client) EnqueueVerificationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/users/verify-email?token=%s", c.baseURL, url.QueryEscape(token))
	task, err := NewSendEmailTask(SendEmailPayload{
		To:      to,
		Subject: "Verify your WorkTrack account",
		Body:    "Welcome to WorkTrack. Confirm your email address by opening:\n\n" + link + "\n\nThe link expires in 48 hours.",
	})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue send email: %w", err)
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
