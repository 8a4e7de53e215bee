package sheets

import "fmt"

// colName converts a 1-based column index to its A1 letter form.
func colName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}

// cellA1 renders a 1-based (column, row) pair, e.g. (1, 2) -> "A2".
func cellA1(col, row int) string {
	return fmt.Sprintf("%s%d", colName(col), row)
}

// rangeA1 renders a rectangular span, e.g. "A2:M2".
func rangeA1(col1, row1, col2, row2 int) string {
	return fmt.Sprintf("%s:%s", cellA1(col1, row1), cellA1(col2, row2))
}
