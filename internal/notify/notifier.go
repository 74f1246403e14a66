package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"google.golang.org/api/gmail/v1"
)

// Notifier delivers a best-effort notification to one recipient. Failures
// are reported to the caller, never fatal.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// GmailNotifier sends through the authenticated Gmail account.
type GmailNotifier struct {
	Service *gmail.Service
}

func NewGmail(svc *gmail.Service) *GmailNotifier {
	return &GmailNotifier{Service: svc}
}

func (n *GmailNotifier) Notify(ctx context.Context, to, subject, body string) error {
	raw := fmt.Sprintf(
		"To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		to, subject, body,
	)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}
	_, err := n.Service.Users.Messages.Send("me", msg).Context(ctx).Do()
	return err
}

// LogNotifier is the fallback when no mail credentials are configured, so
// the reminder job still runs end to end in development.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, to, subject, _ string) error {
	log.Printf("📨 (log notifier) to=%s subject=%q", to, subject)
	return nil
}
