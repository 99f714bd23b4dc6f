package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/worktrack/worktrack/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// Mailer delivers queued emails over SMTP.
type Mailer struct {
	Addr    string
	From    string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMailer constructs a Mailer pointed at host:port.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	return &Mailer{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		From:    from,
		Logger:  logger,
		Metrics: jobmetrics.NewMetrics(nil),
	}
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	tracker := m.Metrics.Track(TaskTypeSendEmail)
	msg := m.compose(payload)
	err := smtp.SendMail(m.Addr, nil, m.From, []string{payload.To}, msg)
	err = tracker.End(err)
	if err != nil {
		m.logger().Error("send email",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject),
			slog.Any("error", err),
		)
		return fmt.Errorf("jobs: send email: %w", err)
	}
	m.logger().Info("email sent",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
	)
	return nil
}

func (m *Mailer) compose(payload SendEmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", payload.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", payload.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(payload.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (m *Mailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
