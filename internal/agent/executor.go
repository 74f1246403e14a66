package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultRowCap bounds results for queries where the user did not ask for a
// specific bound.
const DefaultRowCap = 10

// displayCellLimit is the presentation-layer truncation width, in runes.
const displayCellLimit = 30

// Row is one result row keyed by column name. Values are already
// defensively serialized; callers never see driver-specific types.
type Row map[string]any

// QueryResult is the uniform tabular result shape.
type QueryResult struct {
	Rows      []Row `json:"rows"`
	RowCount  int   `json:"row_count"`
	Truncated bool  `json:"truncated"`
}

// QueryRunner is the execution capability the pipeline depends on.
type QueryRunner interface {
	Execute(ctx context.Context, stmt SafeStatement) (QueryResult, error)
}

// Executor runs validated statements against the shared connection pool
// with a bounded timeout.
type Executor struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{db: db, timeout: 15 * time.Second}
}

func (e *Executor) Execute(ctx context.Context, stmt SafeStatement) (QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.WithContext(ctx).Raw(string(stmt)).Rows()
	if err != nil {
		// Raw driver detail stays in the server log only.
		log.Printf("❌ Executor: query failed: %v", err)
		return QueryResult{}, fmt.Errorf("%w: %s", ErrExecutionFailed, sanitizeDriverError(ctx, err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		log.Printf("❌ Executor: columns failed: %v", err)
		return QueryResult{}, fmt.Errorf("%w: could not read result shape", ErrExecutionFailed)
	}

	capRows := -1
	if !hasExplicitLimit(string(stmt)) {
		capRows = DefaultRowCap
	}

	var out []Row
	truncated := false
	for rows.Next() {
		if capRows >= 0 && len(out) >= capRows {
			truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			log.Printf("❌ Executor: scan failed: %v", err)
			return QueryResult{}, fmt.Errorf("%w: could not read a result row", ErrExecutionFailed)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		log.Printf("❌ Executor: row iteration failed: %v", err)
		return QueryResult{}, fmt.Errorf("%w: %s", ErrExecutionFailed, sanitizeDriverError(ctx, err))
	}

	if out == nil {
		out = []Row{}
	}
	return QueryResult{Rows: out, RowCount: len(out), Truncated: truncated}, nil
}

func sanitizeDriverError(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "the query timed out"
	}
	return "the database rejected the query"
}

// hasExplicitLimit reports whether the statement already carries a LIMIT
// clause, in which case the user's bound wins over the default cap.
func hasExplicitLimit(stmt string) bool {
	for _, tok := range tokenize(stmt) {
		if strings.EqualFold(tok, "limit") {
			return true
		}
	}
	return false
}

// NormalizeRows maps any driver return shape onto the uniform rows shape.
// Total by construction: every input class yields a defined, possibly
// empty, sequence.
func NormalizeRows(v any) []Row {
	switch t := v.(type) {
	case nil:
		return []Row{}
	case []Row:
		if t == nil {
			return []Row{}
		}
		return t
	case []map[string]any:
		out := make([]Row, 0, len(t))
		for _, m := range t {
			row := make(Row, len(m))
			for k, val := range m {
				row[k] = normalizeValue(val)
			}
			out = append(out, row)
		}
		return out
	case map[string]any:
		row := make(Row, len(t))
		for k, val := range t {
			row[k] = normalizeValue(val)
		}
		return []Row{row}
	default:
		return []Row{{"value": normalizeValue(v)}}
	}
}

// normalizeValue serializes one cell defensively before transport.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case bool, string, int, int32, int64, uint, uint32, uint64, float32, float64:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// FormatResult renders a result as a small text table for the chat surface.
// Long cells are shortened for display only; the underlying result is left
// untouched for programmatic consumers.
func FormatResult(res QueryResult) string {
	if res.RowCount == 0 {
		return "No matching records found."
	}

	cols := columnOrder(res.Rows[0])
	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString("\n")
	for _, row := range res.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = displayCell(row[c])
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	if res.Truncated {
		b.WriteString(fmt.Sprintf("(showing first %d rows)\n", res.RowCount))
	}
	return b.String()
}

func displayCell(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprintf("%v", v)
	runes := []rune(s)
	if len(runes) > displayCellLimit {
		return string(runes[:displayCellLimit]) + "..."
	}
	return s
}

func columnOrder(r Row) []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	// map iteration order is random; keep the header stable.
	sort.Strings(cols)
	return cols
}
