package sheets

import (
	"fmt"
	"strconv"
)

// ColumnLetter converts a 1-based column index to its A1 letter form.
func ColumnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}

// CellRef renders a 1-based row/column pair as an A1 reference.
func CellRef(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// RangeRef renders a sheet-qualified A1 range.
func RangeRef(sheet, a1 string) string {
	return fmt.Sprintf("%s!%s", sheet, a1)
}
