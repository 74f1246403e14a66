package gmailagent

import (
	"context"
	"log"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

// GmailMailbox backs Mailbox with the Gmail API.
type GmailMailbox struct {
	Service *gmail.Service
}

func NewGmailMailbox(svc *gmail.Service) *GmailMailbox {
	return &GmailMailbox{Service: svc}
}

func (m *GmailMailbox) Search(ctx context.Context, query string, max int64) ([]MessageSummary, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(3, time.Second, func() error {
		var e error
		resp, e = m.Service.Users.Messages.List("me").Q(query).MaxResults(max).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, err
	}

	var out []MessageSummary
	for _, h := range resp.Messages {
		msg, err := m.Service.Users.Messages.Get("me", h.Id).
			Format("metadata").MetadataHeaders("From", "Subject").
			Context(ctx).Do()
		if err != nil {
			log.Printf("⚠️ GmailMailbox: fetch %s failed: %v", h.Id, err)
			continue
		}
		headers := parseHeaders(msg)
		out = append(out, MessageSummary{
			From:    headers["From"],
			Subject: headers["Subject"],
			Snippet: msg.Snippet,
		})
	}
	return out, nil
}

// retry executes a function with exponential backoff. Non-retryable API
// errors (4xx other than 429) fail fast.
func retry(attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if gErr, ok := err.(*googleapi.Error); ok {
			if gErr.Code >= 400 && gErr.Code < 500 && gErr.Code != 429 {
				return err
			}
		}
		log.Printf("⚠️ Gmail API error: %v. Retrying in %v...", err, sleep)
		time.Sleep(sleep)
		sleep *= 2
	}
	return err
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

// EmployerDirectory resolves employer recipient lists from the platform DB.
type EmployerDirectory struct {
	DB *gorm.DB
}

func NewEmployerDirectory(db *gorm.DB) *EmployerDirectory {
	return &EmployerDirectory{DB: db}
}

func (d *EmployerDirectory) EmployerEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := d.DB.WithContext(ctx).
		Raw(`SELECT u.email FROM employers e
		     JOIN users u ON u.id = e.user_id
		     WHERE u.email <> '' AND u.deleted_at IS NULL
		     ORDER BY u.email`).
		Scan(&emails).Error
	return emails, err
}
