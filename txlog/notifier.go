package txlog

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"time"
)

// Mailer delivers an administrator notification.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// Notifier mails administrators about internal errors, suppressing repeats
// of the same error within a window. The suppression state is owned by the
// Notifier and guarded by its mutex.
type Notifier struct {
	mu       sync.Mutex
	sent     map[string]*sentError
	window   time.Duration
	lifetime time.Duration
	mailer   Mailer
	now      func() time.Time
	logger   *slog.Logger
}

type sentError struct {
	last       time.Time
	suppressed int
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) { n.now = now }
}

// WithNotifierLogger sets the logger for delivery failures.
func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// NewNotifier returns a Notifier that suppresses repeats of an error for
// window and forgets an error entirely once lifetime has passed since it
// was last sent.
func NewNotifier(mailer Mailer, window, lifetime time.Duration, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sent:     make(map[string]*sentError),
		window:   window,
		lifetime: lifetime,
		mailer:   mailer,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify mails desc to the administrators unless the same error was sent
// within the suppression window. It reports whether a mail was attempted.
// Delivery failures are logged and otherwise ignored.
func (n *Notifier) Notify(ctx context.Context, desc string) bool {
	count, send := n.record(desc)
	if !send {
		return false
	}

	var body strings.Builder
	if count > 1 {
		fmt.Fprintf(&body, "The following error has occurred %d times since the last notification.", count)
	} else {
		body.WriteString("The following error occurred.")
	}
	fmt.Fprintf(&body, "  Notifications of any additional occurrences of this error will be suppressed for the next %s.\n\n%s",
		n.window, desc)

	if err := n.mailer.Send(ctx, "pidminter error", body.String()); err != nil {
		n.logger.Debug("administrator notification failed", "error", err)
	}
	return true
}

// record updates the suppression state for desc and returns how many
// occurrences the next mail covers and whether to send it.
func (n *Notifier) record(desc string) (int, bool) {
	now := n.now()

	n.mu.Lock()
	defer n.mu.Unlock()

	for k, e := range n.sent {
		if now.Sub(e.last) > n.lifetime {
			delete(n.sent, k)
		}
	}

	e, ok := n.sent[desc]
	if !ok {
		n.sent[desc] = &sentError{last: now}
		return 1, true
	}
	if now.Sub(e.last) <= n.window {
		e.suppressed++
		return 0, false
	}
	count := 1 + e.suppressed
	e.last = now
	e.suppressed = 0
	return count, true
}

// Tracked returns the number of errors currently remembered.
func (n *Notifier) Tracked() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// SMTPMailer sends notifications through an SMTP relay without
// authentication.
type SMTPMailer struct {
	Addr string
	From string
	To   []string
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	if err := smtp.SendMail(m.Addr, nil, m.From, m.To, []byte(msg.String())); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
