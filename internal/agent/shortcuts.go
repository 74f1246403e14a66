package agent

import "strings"

// Shortcut answers a high-frequency query shape with a hand-authored
// statement, skipping generation entirely. Deterministic and always safe.
type Shortcut struct {
	Name string
	SQL  SafeStatement

	match func(u string) bool
}

// shortcuts are checked in order; first match wins. Keep the more specific
// predicates ahead of the generic ones.
var shortcuts = []Shortcut{
	{
		Name: "list-job-seekers",
		SQL: "SELECT u.fname, u.lname, u.email FROM job_seekers js " +
			"JOIN users u ON u.id = js.user_id ORDER BY u.id LIMIT 10",
		match: func(u string) bool {
			return containsAny(u, "job seeker", "jobseeker", "job-seeker", "workers") &&
				containsAny(u, "list", "show", "all", "find")
		},
	},
	{
		Name: "list-employers",
		SQL: "SELECT e.company_name, u.email FROM employers e " +
			"JOIN users u ON u.id = e.user_id ORDER BY e.id LIMIT 10",
		match: func(u string) bool {
			return containsAny(u, "employer", "company", "companies") &&
				containsAny(u, "list", "show", "all", "find")
		},
	},
	{
		Name: "count-jobs",
		SQL:  "SELECT COUNT(*) AS total_jobs FROM jobs WHERE deleted_at IS NULL",
		match: func(u string) bool {
			return containsAny(u, "how many job", "count jobs", "number of jobs", "total jobs")
		},
	},
	{
		Name: "pending-payments",
		SQL: "SELECT id, amount, due_date, status FROM payments " +
			"WHERE status = 'pending' ORDER BY due_date LIMIT 10",
		match: func(u string) bool {
			return strings.Contains(u, "payment") && containsAny(u, "pending", "due", "unpaid")
		},
	},
}

// LookupShortcut returns the first shortcut matching the utterance.
func LookupShortcut(utterance string) (Shortcut, bool) {
	u := strings.ToLower(utterance)
	for _, s := range shortcuts {
		if s.match(u) {
			return s, true
		}
	}
	return Shortcut{}, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
