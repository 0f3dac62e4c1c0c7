package products

import "strconv"

// BillableUnits returns the number of units a row is billed for: the
// explicit total count where the schema has one, otherwise daily count ×
// operation days (the reward schema carries no explicit total). Reports
// false when the cells do not parse; such rows never pass validation.
func BillableUnits(row ParsedRow) (int, bool) {
	cfg, err := Config(row.Product)
	if err != nil {
		return 0, false
	}

	if cfg.hasColumn("total_count") {
		total, err := strconv.Atoi(row.Cell("total_count"))
		if err != nil || total <= 0 {
			return 0, false
		}
		return total, true
	}

	daily, err := strconv.Atoi(row.Cell("daily_count"))
	if err != nil || daily <= 0 {
		return 0, false
	}
	days, err := strconv.Atoi(row.Cell("operation_days"))
	if err != nil || days <= 0 {
		return 0, false
	}
	return daily * days, true
}

func (c ProductConfig) hasColumn(key string) bool {
	for _, col := range c.Columns {
		if col.Key == key {
			return true
		}
	}
	return false
}
