package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	failFor  map[string]bool
	subjects []string
	calls    int
}

func (f *fakeNotifier) Notify(_ context.Context, to, subject, _ string) error {
	f.calls++
	if f.failFor[to] {
		return errors.New("delivery failed")
	}
	f.subjects = append(f.subjects, subject)
	return nil
}

func TestWindowFullDayBounds(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 45, 0, time.UTC)
	start, end := Window(now)

	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 12, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), end)
}

func TestWindowCrossesMonthBoundary(t *testing.T) {
	now := time.Date(2025, 1, 30, 8, 0, 0, 0, time.UTC)
	start, _ := Window(now)
	assert.Equal(t, time.February, start.Month())
	assert.Equal(t, 1, start.Day())
}

func TestNotifyAllBestEffort(t *testing.T) {
	nt := &fakeNotifier{failFor: map[string]bool{"down@x.com": true}}
	j := &Job{Notifier: nt}

	due := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{PaymentID: 1, Amount: 100, DueDate: due, Email: "a@x.com"},
		{PaymentID: 2, Amount: 250, DueDate: due, Email: "down@x.com"},
		{PaymentID: 3, Amount: 75, DueDate: due, Email: "b@x.com"},
	}

	reminded := j.notifyAll(context.Background(), records)
	assert.Equal(t, 2, reminded)
	assert.Equal(t, 3, nt.calls, "a failure must not stop the loop")

	require.Len(t, nt.subjects, 2)
	assert.Equal(t, "Payment due in 2 days - payment #1", nt.subjects[0])
	assert.Equal(t, "Payment due in 2 days - payment #3", nt.subjects[1])
}

func TestNotifyAllEmpty(t *testing.T) {
	j := &Job{Notifier: &fakeNotifier{}}
	assert.Zero(t, j.notifyAll(context.Background(), nil))
}
