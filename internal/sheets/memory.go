package sheets

import (
	"context"
	"sync"
)

// MemWorksheet is an in-memory Worksheet used for tests and local
// development. Mutating helpers (InsertRow, DeleteRow, SetCell) simulate the
// out-of-band human edits the row-identity cache has to survive.
type MemWorksheet struct {
	mu   sync.Mutex
	rows [][]string
}

// NewMemWorksheet seeds a worksheet with the given rows.
func NewMemWorksheet(rows [][]string) *MemWorksheet {
	copied := make([][]string, len(rows))
	for i, row := range rows {
		copied[i] = append([]string(nil), row...)
	}
	return &MemWorksheet{rows: copied}
}

func (w *MemWorksheet) Values(_ context.Context) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]string, len(w.rows))
	for i, row := range w.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (w *MemWorksheet) ColValues(_ context.Context, col int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.rows))
	for i, row := range w.rows {
		if col >= 1 && col <= len(row) {
			out[i] = row[col-1]
		}
	}
	return out, nil
}

func (w *MemWorksheet) RowValues(_ context.Context, row int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if row < 1 || row > len(w.rows) {
		return nil, nil
	}
	return append([]string(nil), w.rows[row-1]...), nil
}

func (w *MemWorksheet) Cell(_ context.Context, row, col int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if row < 1 || row > len(w.rows) {
		return "", nil
	}
	r := w.rows[row-1]
	if col < 1 || col > len(r) {
		return "", nil
	}
	return r[col-1], nil
}

func (w *MemWorksheet) AppendRow(_ context.Context, row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, append([]string(nil), row...))
	return nil
}

func (w *MemWorksheet) BatchUpdate(_ context.Context, updates []CellUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range updates {
		for len(w.rows) < u.Row {
			w.rows = append(w.rows, nil)
		}
		row := w.rows[u.Row-1]
		for len(row) < u.Col {
			row = append(row, "")
		}
		row[u.Col-1] = u.Value
		w.rows[u.Row-1] = row
	}
	return nil
}

// InsertRow inserts a row before the 1-based position, shifting rows down.
func (w *MemWorksheet) InsertRow(pos int, row []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pos < 1 {
		pos = 1
	}
	if pos > len(w.rows)+1 {
		pos = len(w.rows) + 1
	}
	w.rows = append(w.rows, nil)
	copy(w.rows[pos:], w.rows[pos-1:])
	w.rows[pos-1] = append([]string(nil), row...)
}

// DeleteRow removes the 1-based row, shifting rows up.
func (w *MemWorksheet) DeleteRow(pos int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pos < 1 || pos > len(w.rows) {
		return
	}
	w.rows = append(w.rows[:pos-1], w.rows[pos:]...)
}

// SetCell overwrites a single 1-based cell.
func (w *MemWorksheet) SetCell(row, col int, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.rows) < row {
		w.rows = append(w.rows, nil)
	}
	r := w.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	w.rows[row-1] = r
}
