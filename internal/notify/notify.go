// Package notify abstracts outbound report delivery. Actual SMTP sending
// lives in a separate service; the pipeline only needs somewhere to hand
// the rendered report.
package notify

import (
	"context"
	"sync"

	"cargodocs/internal/logging"
)

// Message is one outbound report email.
type Message struct {
	Subject    string
	HTMLBody   string
	Recipients []string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes outbound reports to the log instead of sending them.
// Used when no delivery transport is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logging.Component("notify").WithField("recipients", msg.Recipients).
		Infof("report ready: %s (%d bytes)", msg.Subject, len(msg.HTMLBody))
	return nil
}

// Recorder captures sent messages for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
