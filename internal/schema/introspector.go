package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// ErrUnavailable marks a failed metadata query. Callers degrade to an empty
// description instead of failing the request.
var ErrUnavailable = errors.New("schema unavailable")

type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Description is the compact view of the live schema used as generation
// context. Immutable once built.
type Description struct {
	Tables []TableInfo `json:"tables"`
}

// Render produces a deterministic text block, one line per table in catalog
// order, suitable as a prompt fragment.
func (d Description) Render() string {
	if len(d.Tables) == 0 {
		return "(schema unavailable)"
	}
	var b strings.Builder
	for _, t := range d.Tables {
		b.WriteString(t.Name)
		b.WriteString("(")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(" ")
			b.WriteString(c.DataType)
			if c.Nullable {
				b.WriteString(" NULL")
			}
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// Introspector reads the metadata catalog and caches the result for the
// process lifetime. Rebuild swaps in a fresh copy; readers never observe a
// partially built description.
type Introspector struct {
	mu     sync.RWMutex
	cached *Description
	load   func(ctx context.Context) (Description, error)
}

func NewIntrospector(db *gorm.DB) *Introspector {
	return &Introspector{load: func(ctx context.Context) (Description, error) {
		return loadFromCatalog(ctx, db)
	}}
}

// Describe returns the cached description, building it on first use.
func (in *Introspector) Describe(ctx context.Context) (Description, error) {
	in.mu.RLock()
	if in.cached != nil {
		d := *in.cached
		in.mu.RUnlock()
		return d, nil
	}
	in.mu.RUnlock()
	return in.Rebuild(ctx)
}

// Rebuild queries the catalog and atomically replaces the cache. On failure
// the previous cache (if any) is kept and an empty description is returned.
func (in *Introspector) Rebuild(ctx context.Context) (Description, error) {
	desc, err := in.load(ctx)
	if err != nil {
		return Description{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	in.mu.Lock()
	in.cached = &desc
	in.mu.Unlock()
	return desc, nil
}

const catalogQuery = `
SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

func loadFromCatalog(ctx context.Context, db *gorm.DB) (Description, error) {
	rows, err := db.WithContext(ctx).Raw(catalogQuery).Rows()
	if err != nil {
		return Description{}, err
	}
	defer rows.Close()

	var desc Description
	var current *TableInfo
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return Description{}, err
		}
		if current == nil || current.Name != table {
			desc.Tables = append(desc.Tables, TableInfo{Name: table})
			current = &desc.Tables[len(desc.Tables)-1]
		}
		current.Columns = append(current.Columns, ColumnInfo{
			Name:     column,
			DataType: dataType,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	return desc, rows.Err()
}
