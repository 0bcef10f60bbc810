package sheets

import "context"

// CellUpdate addresses a single cell write. Row and Col are 1-based.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// Worksheet is the narrow seam over one tab of the external tabular store.
// The store has no native indexing or transactions; everything above this
// interface (row-identity cache, staleness detection, batched writes) exists
// to compensate. A future optimistic version check belongs here.
type Worksheet interface {
	// Values returns every row, including the header row.
	Values(ctx context.Context) ([][]string, error)
	// ColValues returns one column top to bottom, including the header cell.
	ColValues(ctx context.Context, col int) ([]string, error)
	// RowValues returns one row left to right.
	RowValues(ctx context.Context, row int) ([]string, error)
	// Cell returns a single cell value, empty string when blank.
	Cell(ctx context.Context, row, col int) (string, error)
	// AppendRow appends one row after the last non-empty row.
	AppendRow(ctx context.Context, row []string) error
	// BatchUpdate applies all cell writes in a single round trip.
	BatchUpdate(ctx context.Context, updates []CellUpdate) error
}

// Spreadsheet resolves named worksheets.
type Spreadsheet interface {
	Worksheet(name string) Worksheet
}
