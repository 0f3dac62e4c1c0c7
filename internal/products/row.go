package products

import "strings"

// ParsedRow is one data row lifted out of an uploaded workbook. Cells are
// keyed by column key, values are raw trimmed cell text. RowNumber is the
// 1-based spreadsheet row (header row included) so errors map back to the
// sheet the client is looking at.
type ParsedRow struct {
	SheetName string            `json:"sheetName"`
	RowNumber int               `json:"rowNumber"`
	Product   ProductType       `json:"product"`
	Cells     map[string]string `json:"cells"`
}

// Cell returns the trimmed value of a column, empty if absent.
func (r ParsedRow) Cell(key string) string {
	return strings.TrimSpace(r.Cells[key])
}

// IsBlank reports whether every cell is empty. Blank separator rows are
// legal in uploaded sheets and are skipped by the parser.
func (r ParsedRow) IsBlank() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ValidationResult is the outcome of validating one row. Local and server
// results share this shape; UnitPrice and PointCost are only set by the
// server pass.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors"`
	UnitPrice int      `json:"unitPrice,omitempty"`
	PointCost int      `json:"pointCost,omitempty"`
}

// Merge combines a local and a server result: valid only if both are
// valid, error lists concatenated (never deduplicated), pricing taken
// from whichever side computed it.
func (r ValidationResult) Merge(other ValidationResult) ValidationResult {
	merged := ValidationResult{
		Valid:     r.Valid && other.Valid,
		Errors:    append(append([]string{}, r.Errors...), other.Errors...),
		UnitPrice: r.UnitPrice,
		PointCost: r.PointCost,
	}
	if other.UnitPrice != 0 {
		merged.UnitPrice = other.UnitPrice
	}
	if other.PointCost != 0 {
		merged.PointCost = other.PointCost
	}
	return merged
}
