// Package normalizer derives comparable per-unit pricing fields for each
// listing row. All parse failures recover to nil fields, never errors.
package normalizer

import (
	"math"
	"strconv"
	"strings"

	"price-insights-go/internal/config"
	"price-insights-go/internal/parser"
	"price-insights-go/internal/types"
)

// Normalize maps every listing 1:1 onto a normalized record.
func Normalize(recs []types.ListingRecord, cfg config.Config) []types.NormalizedRecord {
	out := make([]types.NormalizedRecord, len(recs))
	for i, rec := range recs {
		out[i] = normalizeOne(rec, cfg)
	}
	return out
}

func normalizeOne(rec types.ListingRecord, cfg config.Config) types.NormalizedRecord {
	r := types.NormalizedRecord{ListingRecord: rec}

	if strings.TrimSpace(r.Brand) == "" {
		r.Brand = "Unknown"
	}
	r.CategoryGroup = categoryGroup(rec.Category1, rec.Category2)

	r.Price = parsePrice(rec.PriceRaw)
	r.PageRank = parseNumber(rec.PageRankRaw)

	r.SheetsPerUnit = parser.SheetsPerUnit(rec.ProductName)
	r.Units = parser.Units(rec.ProductName)
	r.HasSheets = r.SheetsPerUnit != nil
	if r.SheetsPerUnit != nil {
		total := *r.SheetsPerUnit * float64(r.Units)
		r.TotalSheets = &total
		r.IsUnrealisticSheets = total < cfg.MinTotalSheets || total > cfg.MaxTotalSheets
		r.IsValidSheets = !r.IsUnrealisticSheets && total > 0
	}

	if r.TotalSheets != nil && *r.TotalSheets > 0 && r.Price != nil {
		up := *r.Price / *r.TotalSheets
		r.UnitPrice = &up
		if up > 0 && r.IsValidSheets {
			lp := math.Log(up)
			r.LogUnitPrice = &lp
		}
	}
	return r
}

// categoryGroup prefers category2, falls back to category1, and normalizes
// whitespace-only values to absent.
func categoryGroup(cat1, cat2 string) string {
	if g := strings.TrimSpace(cat2); g != "" {
		return g
	}
	return strings.TrimSpace(cat1)
}

// parsePrice coerces a price cell to a number, tolerating thousands
// separators. Unparsable values recover to nil.
func parsePrice(raw string) *float64 {
	return parseNumber(strings.ReplaceAll(raw, ",", ""))
}

func parseNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
