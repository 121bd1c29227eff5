package dataset

import "fmt"

// Dataset is a rectangular table keyed by variable name. Cells are raw
// strings exactly as read from the source; missing-value resolution and
// numeric coercion happen inside the analyzers, never here.
type Dataset struct {
	Name string

	columns map[string][]string
	order   []string
	rows    int
}

// New creates an empty dataset.
func New(name string) *Dataset {
	return &Dataset{Name: name, columns: make(map[string][]string)}
}

// AddColumn appends a named column. All columns must share one length.
func (d *Dataset) AddColumn(name string, values []string) error {
	if _, exists := d.columns[name]; exists {
		return fmt.Errorf("dataset %s: duplicate column %s", d.Name, name)
	}
	if len(d.order) > 0 && len(values) != d.rows {
		return fmt.Errorf("dataset %s: column %s has %d rows, expected %d", d.Name, name, len(values), d.rows)
	}
	d.columns[name] = values
	d.order = append(d.order, name)
	d.rows = len(values)
	return nil
}

// Column returns the raw values of a column.
func (d *Dataset) Column(name string) ([]string, bool) {
	col, ok := d.columns[name]
	return col, ok
}

// Names returns column names in source order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the column count.
func (d *Dataset) Cols() int { return len(d.order) }
