package models

import (
	"math"
	"sort"
	"time"
)

// Table is the columnar working form of a reading batch. Numeric columns
// are dense float64 slices with NaN marking missing cells; row metadata
// (entity, timestamp, source) is carried alongside. All pipeline stages
// operate on Tables and return new or mutated-in-place Tables, never
// re-identified rows.
type Table struct {
	Entities   []string
	Timestamps []time.Time
	Sources    []string

	columnOrder []string
	columns     map[string][]float64
}

// NewTable creates an empty table with capacity for n rows.
func NewTable(n int) *Table {
	return &Table{
		Entities:   make([]string, 0, n),
		Timestamps: make([]time.Time, 0, n),
		Sources:    make([]string, 0, n),
		columns:    make(map[string][]float64),
	}
}

// NewTableFromReadings builds a table from a reading batch. Rows are
// sorted by (entity, timestamp, source) so that per-entity series are
// contiguous and chronological, which lag and rolling stages rely on.
// Columns are the union of all value keys across the batch.
func NewTableFromReadings(readings []Reading) *Table {
	sorted := make([]Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EntityID != sorted[j].EntityID {
			return sorted[i].EntityID < sorted[j].EntityID
		}
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].Source < sorted[j].Source
	})

	seen := make(map[string]bool)
	var order []string
	for _, r := range sorted {
		for k := range r.Values {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}
	sort.Strings(order)

	t := NewTable(len(sorted))
	for _, col := range order {
		t.AddColumn(col, nil)
	}
	for _, r := range sorted {
		t.Entities = append(t.Entities, r.EntityID)
		t.Timestamps = append(t.Timestamps, r.Timestamp)
		t.Sources = append(t.Sources, r.Source)
		for _, col := range order {
			t.columns[col] = append(t.columns[col], r.Value(col))
		}
	}
	return t
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	return len(t.Entities)
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columnOrder))
	copy(out, t.columnOrder)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns the backing slice for a column, or nil when absent.
// Callers that mutate the slice mutate the table.
func (t *Table) Column(name string) []float64 {
	return t.columns[name]
}

// AddColumn registers a column. A nil slice allocates an all-NaN column
// sized to the current row count. An existing column is replaced in place,
// keeping its position in the column order.
func (t *Table) AddColumn(name string, values []float64) {
	if values == nil {
		values = make([]float64, t.NumRows())
		for i := range values {
			values[i] = math.NaN()
		}
	}
	if _, exists := t.columns[name]; !exists {
		t.columnOrder = append(t.columnOrder, name)
	}
	t.columns[name] = values
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable(t.NumRows())
	c.Entities = append(c.Entities, t.Entities...)
	c.Timestamps = append(c.Timestamps, t.Timestamps...)
	c.Sources = append(c.Sources, t.Sources...)
	for _, name := range t.columnOrder {
		vals := make([]float64, len(t.columns[name]))
		copy(vals, t.columns[name])
		c.AddColumn(name, vals)
	}
	return c
}

// Slice returns a copy of rows [start, end) across all columns.
func (t *Table) Slice(start, end int) *Table {
	s := NewTable(end - start)
	s.Entities = append(s.Entities, t.Entities[start:end]...)
	s.Timestamps = append(s.Timestamps, t.Timestamps[start:end]...)
	s.Sources = append(s.Sources, t.Sources[start:end]...)
	for _, name := range t.columnOrder {
		vals := make([]float64, end-start)
		copy(vals, t.columns[name][start:end])
		s.AddColumn(name, vals)
	}
	return s
}

// SelectRows returns a copy of the table restricted to the given row
// indices, in the given order.
func (t *Table) SelectRows(idx []int) *Table {
	s := NewTable(len(idx))
	for _, i := range idx {
		s.Entities = append(s.Entities, t.Entities[i])
		s.Timestamps = append(s.Timestamps, t.Timestamps[i])
		s.Sources = append(s.Sources, t.Sources[i])
	}
	for _, name := range t.columnOrder {
		src := t.columns[name]
		vals := make([]float64, len(idx))
		for j, i := range idx {
			vals[j] = src[i]
		}
		s.AddColumn(name, vals)
	}
	return s
}

// Select returns a copy of the table containing only the named columns.
// Row metadata is preserved. Unknown names are skipped.
func (t *Table) Select(names []string) *Table {
	s := NewTable(t.NumRows())
	s.Entities = append(s.Entities, t.Entities...)
	s.Timestamps = append(s.Timestamps, t.Timestamps...)
	s.Sources = append(s.Sources, t.Sources...)
	for _, name := range names {
		if src, ok := t.columns[name]; ok {
			vals := make([]float64, len(src))
			copy(vals, src)
			s.AddColumn(name, vals)
		}
	}
	return s
}

// FilterEntity returns the row indices belonging to the given entity,
// in chronological order.
func (t *Table) FilterEntity(entityID string) []int {
	var idx []int
	for i, e := range t.Entities {
		if e == entityID {
			idx = append(idx, i)
		}
	}
	return idx
}

// EntityIDs returns the distinct entity identifiers in first-seen order.
func (t *Table) EntityIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.Entities {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// EntityRuns yields [start, end) ranges of contiguous rows per entity.
// Tables built by NewTableFromReadings keep each entity contiguous.
func (t *Table) EntityRuns() [][2]int {
	var runs [][2]int
	n := t.NumRows()
	start := 0
	for i := 1; i <= n; i++ {
		if i == n || t.Entities[i] != t.Entities[start] {
			runs = append(runs, [2]int{start, i})
			start = i
		}
	}
	return runs
}
