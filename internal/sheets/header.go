package sheets

import (
	"fmt"
	"strings"

	"promoscan/internal/domain"
)

// synonyms maps canonical alternate header names onto the canonical column
// set; an older deployment of the sheet uses TIMESTAMP and IMAGE.
var synonyms = map[string]string{
	"TIMESTAMP": "DATE",
	"IMAGE":     "IMAGEURL",
}

// canonical normalizes a header cell for name-tolerant matching: case,
// whitespace and underscores are not significant.
func canonical(name string) string {
	name = strings.ToUpper(name)
	name = strings.NewReplacer(" ", "", "_", "", "\t", "").Replace(name)
	if alias, ok := synonyms[name]; ok {
		return alias
	}
	return name
}

// Header is the resolved column layout of the remote sheet.
type Header struct {
	index map[string]int // canonical name -> 0-based sheet column
	width int
}

// ResolveHeader matches a raw header row against the required column set.
// A missing required column is a hard error: failing here beats scattering
// values into the wrong columns.
func ResolveHeader(row []string) (*Header, error) {
	h := &Header{index: make(map[string]int, len(row)), width: len(row)}
	for i, cell := range row {
		name := canonical(cell)
		if name == "" {
			continue
		}
		if _, dup := h.index[name]; !dup {
			h.index[name] = i
		}
	}
	var missing []string
	for _, col := range domain.Columns {
		if _, ok := h.index[canonical(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return h, nil
}

// Col returns the 0-based sheet column for a canonical column name.
func (h *Header) Col(name string) (int, bool) {
	i, ok := h.index[canonical(name)]
	return i, ok
}

// Width is the number of header cells the sheet carries.
func (h *Header) Width() int {
	return h.width
}

// cell safely reads a sheet cell by canonical column name from a row that may
// be shorter than the header.
func (h *Header) cell(row []string, name string) string {
	i, ok := h.Col(name)
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// key extracts the natural key from an existing sheet row.
func (h *Header) key(row []string) domain.Key {
	return domain.NewKey(
		h.cell(row, "DATE"),
		h.cell(row, "COUNTRY"),
		h.cell(row, "ITEM"),
		h.cell(row, "POSITION"),
	)
}
