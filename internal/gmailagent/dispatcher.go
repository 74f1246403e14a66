package gmailagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/kozi-platform/kozi-agent/internal/auth"
	"github.com/kozi-platform/kozi-agent/internal/llm"
	"github.com/kozi-platform/kozi-agent/internal/notify"
)

// ErrForbidden is returned before any external call when the caller does
// not hold the privileged role.
var ErrForbidden = errors.New("forbidden: mailbox actions require admin access")

// MessageSummary is the caller-facing view of one mailbox message.
type MessageSummary struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// Mailbox is the read/search side of the mail collaborator.
type Mailbox interface {
	Search(ctx context.Context, query string, max int64) ([]MessageSummary, error)
}

// Directory resolves recipient lists from the platform's CRUD tables.
type Directory interface {
	EmployerEmails(ctx context.Context) ([]string, error)
}

// SendFailure records one failed recipient in a bulk action.
type SendFailure struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// Outcome aggregates a dispatch: human-readable output plus, for sends,
// the success count and per-recipient failures.
type Outcome struct {
	Output   string        `json:"output"`
	Sent     int           `json:"sent,omitempty"`
	Failures []SendFailure `json:"failures,omitempty"`
}

// Dispatcher executes mailbox actions for the privileged role. Mailbox and
// Notifier are nil when credential resolution failed at startup; every
// dispatch then reports CredentialsUnavailable instead of crashing.
type Dispatcher struct {
	Mailbox   Mailbox
	Notifier  notify.Notifier
	Directory Directory
	LLM       llm.Completer
}

func NewDispatcher(mb Mailbox, n notify.Notifier, dir Directory, c llm.Completer) *Dispatcher {
	return &Dispatcher{Mailbox: mb, Notifier: n, Directory: dir, LLM: c}
}

// Dispatch parses the utterance into one mailbox action and executes it.
// The role gate here is authoritative: classification is never trusted
// alone for security.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, id auth.Identity) (Outcome, error) {
	if !id.IsAdmin() {
		return Outcome{}, ErrForbidden
	}
	if d.Mailbox == nil || d.Notifier == nil {
		return Outcome{}, auth.ErrCredentialsUnavailable
	}

	u := strings.ToLower(input)
	switch {
	case containsAny(u, "send", "notify", "remind", "email to"):
		return d.dispatchSend(ctx, input)
	case containsAny(u, "search", "find", "look for"):
		return d.dispatchSearch(ctx, input)
	default:
		// read latest / unread
		return d.dispatchSearch(ctx, "is:unread")
	}
}

func (d *Dispatcher) dispatchSearch(ctx context.Context, input string) (Outcome, error) {
	q := searchQuery(input)
	msgs, err := d.Mailbox.Search(ctx, q, 5)
	if err != nil {
		log.Printf("❌ GmailAgent: search failed: %v", err)
		return Outcome{}, fmt.Errorf("mailbox search failed")
	}
	if len(msgs) == 0 {
		return Outcome{Output: "No matching messages found."}, nil
	}
	var b strings.Builder
	for i, m := range msgs {
		fmt.Fprintf(&b, "%d. %s — %s\n   %s\n", i+1, m.From, m.Subject, m.Snippet)
	}
	return Outcome{Output: b.String()}, nil
}

func (d *Dispatcher) dispatchSend(ctx context.Context, input string) (Outcome, error) {
	recipients, err := d.resolveRecipients(ctx, input)
	if err != nil {
		return Outcome{}, err
	}
	if len(recipients) == 0 {
		return Outcome{Output: "I couldn't work out who to send that to. Include an address or a group like \"all employers\"."}, nil
	}

	subject, body := d.draftContent(ctx, input)

	// Best effort: one send per recipient, continue past failures.
	var failures []SendFailure
	sent := 0
	for _, to := range recipients {
		if err := d.Notifier.Notify(ctx, to, subject, body); err != nil {
			log.Printf("⚠️ GmailAgent: send to %s failed: %v", to, err)
			failures = append(failures, SendFailure{Recipient: to, Reason: "send failed"})
			continue
		}
		sent++
	}

	out := fmt.Sprintf("Sent %d of %d messages.", sent, len(recipients))
	if len(failures) > 0 {
		out += fmt.Sprintf(" %d failed.", len(failures))
	}
	return Outcome{Output: out, Sent: sent, Failures: failures}, nil
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

func (d *Dispatcher) resolveRecipients(ctx context.Context, input string) ([]string, error) {
	if strings.Contains(strings.ToLower(input), "all employers") {
		emails, err := d.Directory.EmployerEmails(ctx)
		if err != nil {
			log.Printf("❌ GmailAgent: employer lookup failed: %v", err)
			return nil, fmt.Errorf("could not resolve employer recipients")
		}
		return emails, nil
	}
	return emailPattern.FindAllString(input, -1), nil
}

// subject:/say: style markers are the deterministic fallback layer; the
// model drafts the content for free-form asks.
var (
	subjectMarker = regexp.MustCompile(`(?i)subject:\s*"?([^"\n]+)"?`)
	bodyMarker    = regexp.MustCompile(`(?i)(?:say|body|message):\s*"?([^"\n]+)"?`)
)

func (d *Dispatcher) draftContent(ctx context.Context, input string) (subject, body string) {
	if m := subjectMarker.FindStringSubmatch(input); m != nil {
		subject = strings.TrimSpace(m[1])
	}
	if m := bodyMarker.FindStringSubmatch(input); m != nil {
		body = strings.TrimSpace(m[1])
	}
	if subject != "" && body != "" {
		return subject, body
	}

	drafted := d.draftWithModel(ctx, input)
	if subject == "" {
		subject = drafted.Subject
	}
	if body == "" {
		body = drafted.Body
	}
	if subject == "" {
		subject = "Message from Kozi"
	}
	if body == "" {
		body = input
	}
	return subject, body
}

type draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

const draftPrompt = `Draft a short professional email for this request from a recruitment
platform administrator. Request: %q

Return ONLY a JSON object: {"subject": "...", "body": "..."}`

func (d *Dispatcher) draftWithModel(ctx context.Context, input string) draft {
	raw, err := d.LLM.Generate(ctx, fmt.Sprintf(draftPrompt, input))
	if err != nil {
		log.Printf("⚠️ GmailAgent: drafting failed, falling back to literal text: %v", err)
		return draft{}
	}
	var out draft
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return draft{}
	}
	return out
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// searchQuery reduces the utterance to a Gmail query string.
func searchQuery(input string) string {
	u := strings.ToLower(input)
	if strings.Contains(u, "unread") {
		return "is:unread"
	}
	for _, marker := range []string{"about ", "regarding ", "search for ", "find "} {
		if i := strings.Index(u, marker); i >= 0 {
			if topic := strings.TrimSpace(input[i+len(marker):]); topic != "" {
				return topic
			}
		}
	}
	return "in:inbox"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
