package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kozi-platform/kozi-agent/internal/notify"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Record is the read-only snapshot of one obligation due for a reminder.
type Record struct {
	PaymentID uint      `json:"payment_id"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	Email     string    `json:"email"`
}

// Job sends payment reminders for obligations due in two days. It runs on
// its own timer, acquires its own connections, and shares no in-memory
// state with the request handlers.
type Job struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

func NewJob(db *gorm.DB, n notify.Notifier) *Job {
	return &Job{DB: db, Notifier: n}
}

// Schedule registers the daily 07:00 run.
func (j *Job) Schedule(c *cron.Cron) error {
	_, err := c.AddFunc("0 7 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		count, err := j.Run(ctx)
		if err != nil {
			log.Printf("❌ Reminder job failed: %v", err)
			return
		}
		log.Printf("✅ Reminder job done, %d reminders sent", count)
	})
	return err
}

// Run queries pending payments due in the target window and dispatches one
// notification per record, tolerating individual failures.
func (j *Job) Run(ctx context.Context) (int, error) {
	start, end := Window(time.Now())

	var records []Record
	err := j.DB.WithContext(ctx).
		Raw(`SELECT p.id AS payment_id, p.amount, p.due_date, u.email
		     FROM payments p
		     JOIN employers e ON e.id = p.employer_id
		     JOIN users u ON u.id = e.user_id
		     WHERE p.status = 'pending' AND p.due_date BETWEEN ? AND ?`,
			start, end).
		Scan(&records).Error
	if err != nil {
		return 0, fmt.Errorf("reminder query failed: %w", err)
	}

	return j.notifyAll(ctx, records), nil
}

// notifyAll is best effort: log and continue on per-record failures.
func (j *Job) notifyAll(ctx context.Context, records []Record) int {
	reminded := 0
	for _, r := range records {
		subject := fmt.Sprintf("Payment due in 2 days - payment #%d", r.PaymentID)
		body := fmt.Sprintf("Payment #%d of %.2f is due on %s.",
			r.PaymentID, r.Amount, r.DueDate.Format(time.RFC3339))
		if err := j.Notifier.Notify(ctx, r.Email, subject, body); err != nil {
			log.Printf("⚠️ Reminder: notify %s failed: %v", r.Email, err)
			continue
		}
		reminded++
	}
	return reminded
}

// Window returns the full-day bounds of the date two days from now.
func Window(now time.Time) (start, end time.Time) {
	target := now.AddDate(0, 0, 2)
	start = time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	end = start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
