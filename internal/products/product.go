package products

import (
	"errors"
	"strings"
)

// ProductType identifies a campaign product. The three blog types share a
// single spreadsheet sheet and are distinguished per row by the
// distribution-type column.
type ProductType string

const (
	ProductReceiptReview ProductType = "RECEIPT_REVIEW"
	ProductBlogReviewer  ProductType = "BLOG_REVIEWER"
	ProductBlog247       ProductType = "BLOG_247"
	ProductBlogAuto      ProductType = "BLOG_AUTO"
	ProductReward        ProductType = "REWARD"
)

// ContentType is the requested blog content format.
type ContentType string

const (
	ContentPosting ContentType = "POSTING"
	ContentClip    ContentType = "CLIP"
)

// URLRule selects which place-URL shapes a product accepts.
type URLRule int

const (
	URLRuleNone URLRule = iota
	URLRulePlace
	URLRuleMobilePlace
)

// GuideSheetName is the instructions sheet included in every template.
// It is never parsed as a data sheet.
const GuideSheetName = "사용가이드"

var ErrUnknownProduct = errors.New("unknown product")

// Column describes one spreadsheet column of a product schema.
type Column struct {
	Key      string
	Header   string
	Required bool
	Examples []string
}

// ProductConfig is the immutable per-product schema and rule set.
// Configs are registered at package init and never mutated.
type ProductConfig struct {
	Type         ProductType
	Name         string
	SheetName    string
	SheetAliases []string
	Columns      []Column

	// Numeric constraints; zero means unconstrained.
	DailyMin  int
	DailyMax  int
	DailyStep int
	TotalMin  int
	DaysMin   int
	DaysMax   int

	// EnforceTotalFormula requires total == daily * days.
	EnforceTotalFormula bool

	URLColumn string
	URLRule   URLRule

	DateColumns []string

	// DistributionColumn is set on blog configs; its localized label
	// re-resolves the row's effective product type.
	DistributionColumn string
	ContentColumn      string
}

// RequiredColumns returns the keys of all required columns in schema order.
func (c ProductConfig) RequiredColumns() []string {
	keys := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		if col.Required {
			keys = append(keys, col.Key)
		}
	}
	return keys
}

// HeaderFor returns the localized header for a column key.
func (c ProductConfig) HeaderFor(key string) string {
	for _, col := range c.Columns {
		if col.Key == key {
			return col.Header
		}
	}
	return key
}

var blogColumns = []Column{
	{Key: "advertiser_id", Header: "광고주ID", Examples: []string{"adv-1041", "adv-1041", "adv-2203"}},
	{Key: "distribution_type", Header: "배포유형", Required: true, Examples: []string{"리뷰어", "247", "자동화"}},
	{Key: "start_date", Header: "시작일", Required: true, Examples: []string{"2026-09-01", "2026-09-01", "2026-09-15"}},
	{Key: "end_date", Header: "종료일", Required: true, Examples: []string{"2026-09-20", "2026-09-20", "2026-10-14"}},
	{Key: "content_type", Header: "콘텐츠유형", Required: true, Examples: []string{"포스팅", "클립", "포스팅"}},
	{Key: "place_url", Header: "플레이스URL", Required: true, Examples: []string{
		"https://place.naver.com/restaurant/11672104",
		"https://m.place.naver.com/restaurant/11672104/home",
		"https://naver.me/G0ZQvtFz",
	}},
	{Key: "daily_count", Header: "일건수", Required: true, Examples: []string{"5", "3", "10"}},
	{Key: "total_count", Header: "총건수", Required: true, Examples: []string{"100", "30", "300"}},
	{Key: "operation_days", Header: "운영일수", Required: true, Examples: []string{"20", "10", "30"}},
}

func blogConfig(pt ProductType, name string) ProductConfig {
	return ProductConfig{
		Type:                pt,
		Name:                name,
		SheetName:           "블로그배포",
		SheetAliases:        []string{"블로그", "blog"},
		Columns:             blogColumns,
		DailyMin:            3,
		TotalMin:            30,
		DaysMin:             10,
		DaysMax:             30,
		EnforceTotalFormula: true,
		URLColumn:           "place_url",
		URLRule:             URLRulePlace,
		DateColumns:         []string{"start_date", "end_date"},
		DistributionColumn:  "distribution_type",
		ContentColumn:       "content_type",
	}
}

var configs = map[ProductType]ProductConfig{
	ProductReceiptReview: {
		Type:      ProductReceiptReview,
		Name:      "영수증리뷰",
		SheetName: "영수증리뷰",
		SheetAliases: []string{"영수증", "receipt"},
		Columns: []Column{
			{Key: "seq", Header: "순번", Required: true, Examples: []string{"1", "2"}},
			{Key: "total_count", Header: "총건수", Required: true, Examples: []string{"60", "30"}},
			{Key: "daily_count", Header: "일건수", Required: true, Examples: []string{"2", "1"}},
			{Key: "photo_count", Header: "장수", Required: true, Examples: []string{"3", "2"}},
			{Key: "place_url", Header: "플레이스URL", Required: true, Examples: []string{
				"https://m.place.naver.com/restaurant/11672104/home",
				"https://map.naver.com/p/entry/place/11672104",
			}},
			{Key: "start_date", Header: "시작일", Examples: []string{"2026-09-01", ""}},
			{Key: "weekdays", Header: "요일", Examples: []string{"월,수,금", ""}},
			{Key: "time_window", Header: "시간대", Examples: []string{"11:00-14:00", ""}},
			{Key: "image_order", Header: "이미지순서", Examples: []string{"1", "0"}},
			{Key: "visit_range", Header: "방문일", Examples: []string{"2026-09-01~2026-09-30", ""}},
			{Key: "guideline", Header: "가이드라인", Examples: []string{"메뉴 사진 포함", ""}},
			{Key: "script", Header: "원고", Examples: []string{"", ""}},
		},
		DailyMin:    1,
		URLColumn:   "place_url",
		URLRule:     URLRulePlace,
		DateColumns: []string{"start_date"},
	},
	ProductBlogReviewer: blogConfig(ProductBlogReviewer, "블로그배포(리뷰어)"),
	ProductBlog247:      blogConfig(ProductBlog247, "블로그배포(247)"),
	ProductBlogAuto:     blogConfig(ProductBlogAuto, "블로그배포(자동화)"),
	ProductReward: {
		Type:      ProductReward,
		Name:      "리워드",
		SheetName: "리워드",
		SheetAliases: []string{"reward", "트래픽"},
		Columns: []Column{
			{Key: "advertiser_id", Header: "광고주ID", Examples: []string{"adv-1041", ""}},
			{Key: "product_name", Header: "상품명", Required: true, Examples: []string{"강남 새로국밥", "연남 온도커피"}},
			{Key: "place_url", Header: "플레이스URL", Required: true, Examples: []string{
				"https://m.place.naver.com/restaurant/11672104/home",
				"https://m.place.naver.com/place/13290441/home",
			}},
			{Key: "keywords", Header: "타겟키워드", Examples: []string{"강남 국밥,강남역 맛집", ""}},
			{Key: "start_date", Header: "시작일", Required: true, Examples: []string{"2026-09-01", "2026-09-10"}},
			{Key: "end_date", Header: "종료일", Examples: []string{"2026-09-07", ""}},
			{Key: "operation_days", Header: "운영일수", Required: true, Examples: []string{"7", "3"}},
			{Key: "daily_count", Header: "일건수", Required: true, Examples: []string{"100", "300"}},
		},
		DailyMin:    100,
		DailyStep:   100,
		DaysMin:     3,
		DaysMax:     7,
		URLColumn:   "place_url",
		URLRule:     URLRuleMobilePlace,
		DateColumns: []string{"start_date", "end_date"},
	},
}

// productOrder is the stable iteration order used by templates and sheet
// resolution. Blog types follow their distribution-label order.
var productOrder = []ProductType{
	ProductReceiptReview,
	ProductBlogReviewer,
	ProductBlog247,
	ProductBlogAuto,
	ProductReward,
}

var distributionLabels = map[string]ProductType{
	"리뷰어": ProductBlogReviewer,
	"247":  ProductBlog247,
	"자동화": ProductBlogAuto,
}

var contentLabels = map[string]ContentType{
	"포스팅": ContentPosting,
	"클립":  ContentClip,
}

// Config returns the configuration for a product type.
func Config(pt ProductType) (ProductConfig, error) {
	cfg, ok := configs[pt]
	if !ok {
		return ProductConfig{}, ErrUnknownProduct
	}
	return cfg, nil
}

// All returns every registered config in stable order.
func All() []ProductConfig {
	out := make([]ProductConfig, 0, len(productOrder))
	for _, pt := range productOrder {
		out = append(out, configs[pt])
	}
	return out
}

// ParseProductType validates a product type string from the API.
func ParseProductType(s string) (ProductType, error) {
	pt := ProductType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := configs[pt]; !ok {
		return "", ErrUnknownProduct
	}
	return pt, nil
}

// ResolveSheet maps a sheet name to a product type. Exact match against
// configured sheet names wins; otherwise the name is lower-cased,
// whitespace-stripped and matched as a substring against sheet names and
// aliases. A false result means the sheet should be skipped.
func ResolveSheet(name string) (ProductType, bool) {
	for _, pt := range productOrder {
		if configs[pt].SheetName == name {
			return pt, true
		}
	}

	normalized := normalizeSheetName(name)
	if normalized == "" {
		return "", false
	}
	for _, pt := range productOrder {
		cfg := configs[pt]
		candidates := append([]string{cfg.SheetName}, cfg.SheetAliases...)
		for _, candidate := range candidates {
			if strings.Contains(normalized, normalizeSheetName(candidate)) {
				return pt, true
			}
		}
	}
	return "", false
}

func normalizeSheetName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// DecodeDistributionLabel decodes a localized distribution-type label into
// its blog product type. Unknown labels are the caller's error to report;
// there is no default.
func DecodeDistributionLabel(label string) (ProductType, bool) {
	pt, ok := distributionLabels[strings.TrimSpace(label)]
	return pt, ok
}

// DecodeContentLabel decodes a localized content-type label.
func DecodeContentLabel(label string) (ContentType, bool) {
	ct, ok := contentLabels[strings.TrimSpace(label)]
	return ct, ok
}
