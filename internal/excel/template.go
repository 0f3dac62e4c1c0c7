package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"submissions-service/internal/products"
)

// BuildTemplate builds a downloadable workbook for a single product: one
// data sheet with localized headers and example rows, plus the guide
// sheet. No validation happens here; this only emits structure.
func BuildTemplate(pt products.ProductType) (*excelize.File, error) {
	cfg, err := products.Config(pt)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", cfg.SheetName)
	if err := writeDataSheet(f, cfg); err != nil {
		f.Close()
		return nil, err
	}
	writeGuideSheet(f, []products.ProductConfig{cfg})

	idx, _ := f.GetSheetIndex(cfg.SheetName)
	f.SetActiveSheet(idx)
	return f, nil
}

// BuildCombinedTemplate builds one workbook with a data sheet per product
// and a single shared guide sheet. Products sharing a sheet (the blog
// distribution types) contribute that sheet once.
func BuildCombinedTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	var guideConfigs []products.ProductConfig
	seen := make(map[string]bool)
	first := true
	for _, cfg := range products.All() {
		if seen[cfg.SheetName] {
			continue
		}
		seen[cfg.SheetName] = true
		guideConfigs = append(guideConfigs, cfg)

		if first {
			f.SetSheetName("Sheet1", cfg.SheetName)
			first = false
		} else {
			f.NewSheet(cfg.SheetName)
		}
		if err := writeDataSheet(f, cfg); err != nil {
			f.Close()
			return nil, err
		}
	}
	writeGuideSheet(f, guideConfigs)

	f.SetActiveSheet(0)
	return f, nil
}

func writeDataSheet(f *excelize.File, cfg products.ProductConfig) error {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	exampleRows := 0
	for i, col := range cfg.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		headerText := col.Header
		if col.Required {
			headerText = col.Header + " *"
		}
		f.SetCellValue(cfg.SheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(cfg.SheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(cfg.SheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(cfg.SheetName, colName, colName, 18)

		if len(col.Examples) > exampleRows {
			exampleRows = len(col.Examples)
		}
	}

	for rowIdx := 0; rowIdx < exampleRows; rowIdx++ {
		for colIdx, col := range cfg.Columns {
			if rowIdx >= len(col.Examples) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			f.SetCellValue(cfg.SheetName, cell, col.Examples[rowIdx])
		}
	}

	return nil
}

func writeGuideSheet(f *excelize.File, cfgs []products.ProductConfig) {
	sheet := products.GuideSheetName
	f.NewSheet(sheet)

	f.SetCellValue(sheet, "A1", "대량 등록 사용 가이드")
	f.SetCellValue(sheet, "A2", "각 상품 시트의 규칙을 지켜 작성한 뒤 그대로 업로드하세요. 예시 행은 삭제해도 됩니다.")

	row := 4
	for _, cfg := range cfgs {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("[%s]", cfg.Name))
		row++
		for _, line := range guideLines(cfg) {
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line)
			row++
		}
		row++
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "B", 80)
}

func guideLines(cfg products.ProductConfig) []string {
	var lines []string

	var required []string
	for _, key := range cfg.RequiredColumns() {
		required = append(required, cfg.HeaderFor(key))
	}
	lines = append(lines, "필수 입력: "+strings.Join(required, ", "))

	if cfg.DailyMin > 0 || cfg.DailyMax > 0 || cfg.DailyStep > 0 {
		parts := []string{}
		if cfg.DailyMin > 0 {
			parts = append(parts, fmt.Sprintf("%d 이상", cfg.DailyMin))
		}
		if cfg.DailyMax > 0 {
			parts = append(parts, fmt.Sprintf("%d 이하", cfg.DailyMax))
		}
		if cfg.DailyStep > 0 {
			parts = append(parts, fmt.Sprintf("%d 단위", cfg.DailyStep))
		}
		lines = append(lines, cfg.HeaderFor("daily_count")+": "+strings.Join(parts, ", "))
	}
	if cfg.DaysMin > 0 && cfg.DaysMax > 0 {
		lines = append(lines, fmt.Sprintf("%s: %d~%d", cfg.HeaderFor("operation_days"), cfg.DaysMin, cfg.DaysMax))
	}
	if cfg.TotalMin > 0 {
		lines = append(lines, fmt.Sprintf("%s: %d 이상", cfg.HeaderFor("total_count"), cfg.TotalMin))
	}
	if cfg.EnforceTotalFormula {
		lines = append(lines, fmt.Sprintf("%s = %s × %s",
			cfg.HeaderFor("total_count"), cfg.HeaderFor("daily_count"), cfg.HeaderFor("operation_days")))
	}

	switch cfg.URLRule {
	case products.URLRuleMobilePlace:
		lines = append(lines, cfg.HeaderFor(cfg.URLColumn)+": m.place.naver.com 형식의 모바일 주소만 허용")
	case products.URLRulePlace:
		lines = append(lines, cfg.HeaderFor(cfg.URLColumn)+": place.naver.com / m.place.naver.com / map.naver.com / naver.me 주소 허용")
	}

	if len(cfg.DateColumns) > 0 {
		var headers []string
		for _, key := range cfg.DateColumns {
			headers = append(headers, cfg.HeaderFor(key))
		}
		lines = append(lines, strings.Join(headers, ", ")+": YYYY-MM-DD 형식")
	}

	if cfg.DistributionColumn != "" {
		lines = append(lines, cfg.HeaderFor(cfg.DistributionColumn)+": 리뷰어 / 247 / 자동화 중 하나")
	}
	if cfg.ContentColumn != "" {
		lines = append(lines, cfg.HeaderFor(cfg.ContentColumn)+": 포스팅 / 클립 중 하나")
	}

	return lines
}
