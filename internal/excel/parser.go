package excel

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"submissions-service/internal/products"
)

var (
	// ErrWorkbookUnreadable means the upload is not a readable xlsx file.
	ErrWorkbookUnreadable = errors.New("workbook is not readable")
	// ErrNoValidSheets means no sheet resolved to a known product.
	ErrNoValidSheets = errors.New("no sheet matches a known product")
)

// Parse reads an uploaded workbook into parsed rows. Sheets resolve to
// products by name; the guide sheet and unrecognized sheets are skipped.
// Both failure modes are fatal: no partial result is returned.
func Parse(data []byte) ([]products.ParsedRow, error) {
	return parse(data, "")
}

// ParseAs parses like Parse but forces a product type onto sheets whose
// name does not resolve, for single-product uploads built outside the
// template.
func ParseAs(data []byte, forced products.ProductType) ([]products.ParsedRow, error) {
	return parse(data, forced)
}

func parse(data []byte, forced products.ProductType) ([]products.ParsedRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}
	defer f.Close()

	var rows []products.ParsedRow
	resolvedSheets := 0

	for _, sheetName := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(sheetName), products.GuideSheetName) {
			continue
		}

		sheetProduct, ok := products.ResolveSheet(sheetName)
		if !ok {
			if forced == "" {
				continue
			}
			sheetProduct = forced
		}
		resolvedSheets++

		cfg, err := products.Config(sheetProduct)
		if err != nil {
			return nil, err
		}

		sheetRows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrWorkbookUnreadable, sheetName, err)
		}
		if len(sheetRows) < 2 {
			continue
		}

		keys := headerKeys(sheetRows[0], cfg)

		for i, raw := range sheetRows[1:] {
			row := products.ParsedRow{
				SheetName: sheetName,
				RowNumber: i + 2, // 1-based, header at row 1
				Product:   sheetProduct,
				Cells:     make(map[string]string, len(keys)),
			}
			for col, value := range raw {
				if col < len(keys) && keys[col] != "" {
					row.Cells[keys[col]] = strings.TrimSpace(value)
				}
			}
			if row.IsBlank() {
				continue
			}

			// One sheet can carry three blog sub-products; the
			// distribution label overrides the sheet-level resolution.
			if cfg.DistributionColumn != "" {
				if pt, ok := products.DecodeDistributionLabel(row.Cell(cfg.DistributionColumn)); ok {
					row.Product = pt
				}
			}

			rows = append(rows, row)
		}
	}

	if resolvedSheets == 0 {
		return nil, ErrNoValidSheets
	}
	return rows, nil
}

// headerKeys maps each header cell to its column key. Headers match by
// localized header text or by key, case-insensitively, with the required
// marker stripped. Unknown headers map to "" and their cells are dropped.
func headerKeys(headers []string, cfg products.ProductConfig) []string {
	keys := make([]string, len(headers))
	for i, header := range headers {
		normalized := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(header), "*"))
		for _, col := range cfg.Columns {
			if strings.EqualFold(normalized, col.Header) || strings.EqualFold(normalized, col.Key) {
				keys[i] = col.Key
				break
			}
		}
	}
	return keys
}
