package gmailagent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kozi-platform/kozi-agent/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailbox struct {
	msgs  []MessageSummary
	err   error
	calls int
}

func (f *fakeMailbox) Search(_ context.Context, _ string, _ int64) ([]MessageSummary, error) {
	f.calls++
	return f.msgs, f.err
}

type fakeNotifier struct {
	failFor map[string]bool
	sent    []string
	calls   int
}

func (f *fakeNotifier) Notify(_ context.Context, to, _, _ string) error {
	f.calls++
	if f.failFor[to] {
		return errors.New("smtp boom")
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeDirectory struct {
	emails []string
	err    error
}

func (f *fakeDirectory) EmployerEmails(context.Context) ([]string, error) {
	return f.emails, f.err
}

type fakeCompleter struct {
	out string
	err error
}

func (f *fakeCompleter) Short(context.Context, string) (string, error)    { return f.out, f.err }
func (f *fakeCompleter) Generate(context.Context, string) (string, error) { return f.out, f.err }

func admin() auth.Identity {
	return auth.Identity{Role: auth.RoleAdmin, Verified: true}
}

// Non-privileged callers never reach the mail collaborator: zero external
// invocations, Forbidden before anything else.
func TestDispatchForbiddenForNonAdmin(t *testing.T) {
	mb := &fakeMailbox{}
	nt := &fakeNotifier{}
	d := NewDispatcher(mb, nt, &fakeDirectory{emails: []string{"a@x.com"}}, &fakeCompleter{})

	for _, role := range []auth.Role{auth.RoleEmployer, auth.RoleJobSeeker} {
		_, err := d.Dispatch(context.Background(), "send an email to all employers", auth.Identity{Role: role})
		assert.ErrorIs(t, err, ErrForbidden, "role: %s", role)
	}
	assert.Zero(t, mb.calls)
	assert.Zero(t, nt.calls)
}

func TestDispatchCredentialsUnavailable(t *testing.T) {
	d := NewDispatcher(nil, nil, &fakeDirectory{}, &fakeCompleter{})
	_, err := d.Dispatch(context.Background(), "show me unread emails", admin())
	assert.ErrorIs(t, err, auth.ErrCredentialsUnavailable)
}

// Bulk send is best effort: failures are aggregated, not escalated.
func TestDispatchBulkSendPartialFailure(t *testing.T) {
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	nt := &fakeNotifier{failFor: map[string]bool{"b@x.com": true, "d@x.com": true}}
	d := NewDispatcher(&fakeMailbox{}, nt, &fakeDirectory{emails: emails}, &fakeCompleter{})

	out, err := d.Dispatch(context.Background(),
		`send a monthly report reminder to all employers subject: "Monthly report" say: "Please submit your report"`,
		admin())
	require.NoError(t, err)

	assert.Equal(t, 3, out.Sent)
	require.Len(t, out.Failures, 2)
	assert.Equal(t, "b@x.com", out.Failures[0].Recipient)
	assert.Equal(t, "d@x.com", out.Failures[1].Recipient)
	assert.Equal(t, 5, nt.calls, "every recipient attempted despite failures")
}

func TestDispatchSendToExplicitAddress(t *testing.T) {
	nt := &fakeNotifier{}
	d := NewDispatcher(&fakeMailbox{}, nt,
		&fakeDirectory{err: errors.New("directory must not be consulted")},
		&fakeCompleter{out: `{"subject":"Hello","body":"Hi there"}`})

	out, err := d.Dispatch(context.Background(), "send a welcome note to new.hire@x.com", admin())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Sent)
	assert.Equal(t, []string{"new.hire@x.com"}, nt.sent)
}

func TestDispatchSearch(t *testing.T) {
	mb := &fakeMailbox{msgs: []MessageSummary{
		{From: "hr@acme.com", Subject: "Invoice", Snippet: "attached"},
	}}
	d := NewDispatcher(mb, &fakeNotifier{}, &fakeDirectory{}, &fakeCompleter{})

	out, err := d.Dispatch(context.Background(), "search my mail about invoices", admin())
	require.NoError(t, err)
	assert.Contains(t, out.Output, "hr@acme.com")
	assert.Contains(t, out.Output, "Invoice")
	assert.Equal(t, 1, mb.calls)
}

func TestDispatchDefaultsToUnread(t *testing.T) {
	mb := &fakeMailbox{}
	d := NewDispatcher(mb, &fakeNotifier{}, &fakeDirectory{}, &fakeCompleter{})

	out, err := d.Dispatch(context.Background(), "what's in my inbox?", admin())
	require.NoError(t, err)
	assert.Contains(t, out.Output, "No matching messages")
}

func TestDraftContentMarkersSkipModel(t *testing.T) {
	d := NewDispatcher(&fakeMailbox{}, &fakeNotifier{}, &fakeDirectory{},
		&fakeCompleter{err: errors.New("model must not be called")})

	subject, body := d.draftContent(context.Background(),
		`notify them subject: "Deadline moved" say: "The deadline is now Friday"`)
	assert.Equal(t, "Deadline moved", subject)
	assert.Equal(t, "The deadline is now Friday", body)
}

func TestDraftContentFallsBackToLiteralText(t *testing.T) {
	d := NewDispatcher(&fakeMailbox{}, &fakeNotifier{}, &fakeDirectory{},
		&fakeCompleter{err: errors.New("down")})

	input := "send a gentle nudge about timesheets"
	subject, body := d.draftContent(context.Background(), input)
	assert.NotEmpty(t, subject)
	assert.Equal(t, input, body)
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "is:unread", searchQuery("show unread messages"))
	assert.Equal(t, "invoices", searchQuery("search my mail about invoices"))
	assert.Equal(t, "in:inbox", searchQuery("check my mail"))
}

func TestResolveRecipientsExtractsAddresses(t *testing.T) {
	d := NewDispatcher(&fakeMailbox{}, &fakeNotifier{}, &fakeDirectory{}, &fakeCompleter{})
	got, err := d.resolveRecipients(context.Background(), "send it to a@x.com and b.c@y.org")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b.c@y.org"}, got)
}

func TestOutcomeSummaryMentionsFailures(t *testing.T) {
	nt := &fakeNotifier{failFor: map[string]bool{"a@x.com": true}}
	d := NewDispatcher(&fakeMailbox{}, nt, &fakeDirectory{emails: []string{"a@x.com", "b@x.com"}},
		&fakeCompleter{out: `{"subject":"s","body":"b"}`})

	out, err := d.Dispatch(context.Background(), "notify all employers about the meeting", admin())
	require.NoError(t, err)
	assert.True(t, strings.Contains(out.Output, "1 failed"))
	assert.Equal(t, 1, out.Sent)
}
