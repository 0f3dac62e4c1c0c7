package products

import (
	"fmt"
	"regexp"
	"strconv"
)

// Accepted place-URL shapes: desktop place pages, mobile place pages, map
// entries and naver.me short links.
var placeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(pcmap\.)?place\.naver\.com/`),
	regexp.MustCompile(`^https?://m\.place\.naver\.com/`),
	regexp.MustCompile(`^https?://(m\.)?map\.naver\.com/`),
	regexp.MustCompile(`^https?://naver\.me/`),
}

var mobilePlaceURLPattern = regexp.MustCompile(`^https?://m\.place\.naver\.com/`)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateRow applies the product's structural and numeric rules to a
// parsed row. It is pure: no network, no database. All violated rules are
// accumulated so the client sees every problem in one pass.
func ValidateRow(row ParsedRow) ValidationResult {
	cfg, err := Config(row.Product)
	if err != nil {
		return ValidationResult{Errors: []string{fmt.Sprintf("unknown product %q", row.Product)}}
	}

	var errs []string

	for _, col := range cfg.Columns {
		if col.Required && row.Cell(col.Key) == "" {
			errs = append(errs, fmt.Sprintf("required column %q is empty", col.Header))
		}
	}

	if cfg.DistributionColumn != "" {
		if label := row.Cell(cfg.DistributionColumn); label != "" {
			if _, ok := DecodeDistributionLabel(label); !ok {
				errs = append(errs, fmt.Sprintf("unrecognized distribution type %q (expected 리뷰어, 247 or 자동화)", label))
			}
		}
	}
	if cfg.ContentColumn != "" {
		if label := row.Cell(cfg.ContentColumn); label != "" {
			if _, ok := DecodeContentLabel(label); !ok {
				errs = append(errs, fmt.Sprintf("unrecognized content type %q (expected 포스팅 or 클립)", label))
			}
		}
	}

	daily, dailyOK := intCell(row, cfg, "daily_count", &errs)
	days, daysOK := intCell(row, cfg, "operation_days", &errs)
	total, totalOK := intCell(row, cfg, "total_count", &errs)
	intCell(row, cfg, "photo_count", &errs)
	intCell(row, cfg, "seq", &errs)

	if dailyOK {
		if cfg.DailyMin > 0 && daily < cfg.DailyMin {
			errs = append(errs, fmt.Sprintf("%s must be at least %d (got %d)", cfg.HeaderFor("daily_count"), cfg.DailyMin, daily))
		}
		if cfg.DailyMax > 0 && daily > cfg.DailyMax {
			errs = append(errs, fmt.Sprintf("%s must be at most %d (got %d)", cfg.HeaderFor("daily_count"), cfg.DailyMax, daily))
		}
		if cfg.DailyStep > 0 && daily%cfg.DailyStep != 0 {
			errs = append(errs, fmt.Sprintf("%s must be a multiple of %d (got %d)", cfg.HeaderFor("daily_count"), cfg.DailyStep, daily))
		}
	}

	if daysOK {
		if cfg.DaysMin > 0 && days < cfg.DaysMin {
			errs = append(errs, fmt.Sprintf("%s must be at least %d (got %d)", cfg.HeaderFor("operation_days"), cfg.DaysMin, days))
		}
		if cfg.DaysMax > 0 && days > cfg.DaysMax {
			errs = append(errs, fmt.Sprintf("%s must be at most %d (got %d)", cfg.HeaderFor("operation_days"), cfg.DaysMax, days))
		}
	}

	if totalOK && cfg.TotalMin > 0 && total < cfg.TotalMin {
		errs = append(errs, fmt.Sprintf("%s must be at least %d (got %d)", cfg.HeaderFor("total_count"), cfg.TotalMin, total))
	}

	// total == daily * days. Non-integer day counts already failed the
	// integer check above, so only the arithmetic mismatch is reported
	// here; both fold into the same error class.
	if cfg.EnforceTotalFormula && dailyOK && daysOK && totalOK {
		if total != daily*days {
			errs = append(errs, fmt.Sprintf("%s mismatch: expected %d (%d × %d), got %d",
				cfg.HeaderFor("total_count"), daily*days, daily, days, total))
		}
	}

	if cfg.URLColumn != "" {
		if rawURL := row.Cell(cfg.URLColumn); rawURL != "" {
			switch cfg.URLRule {
			case URLRuleMobilePlace:
				if !mobilePlaceURLPattern.MatchString(rawURL) {
					errs = append(errs, fmt.Sprintf("%s must be a mobile place URL (m.place.naver.com): %q", cfg.HeaderFor(cfg.URLColumn), rawURL))
				}
			case URLRulePlace:
				if !matchesPlaceURL(rawURL) {
					errs = append(errs, fmt.Sprintf("%s is not a recognized place URL: %q", cfg.HeaderFor(cfg.URLColumn), rawURL))
				}
			}
		}
	}

	for _, key := range cfg.DateColumns {
		if v := row.Cell(key); v != "" && !dateFormat.MatchString(v) {
			errs = append(errs, fmt.Sprintf("%s must be formatted YYYY-MM-DD (got %q)", cfg.HeaderFor(key), v))
		}
	}

	if v := row.Cell("image_order"); v != "" && v != "0" && v != "1" {
		errs = append(errs, fmt.Sprintf("%s must be 0 or 1 (got %q)", cfg.HeaderFor("image_order"), v))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// intCell parses a numeric column if the schema has it and the cell is
// non-empty. A non-integer value appends an error and reports not-ok.
func intCell(row ParsedRow, cfg ProductConfig, key string, errs *[]string) (int, bool) {
	hasColumn := false
	for _, col := range cfg.Columns {
		if col.Key == key {
			hasColumn = true
			break
		}
	}
	if !hasColumn {
		return 0, false
	}
	v := row.Cell(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a whole number (got %q)", cfg.HeaderFor(key), v))
		return 0, false
	}
	return n, true
}

func matchesPlaceURL(rawURL string) bool {
	for _, p := range placeURLPatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return false
}
