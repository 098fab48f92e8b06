package config

import (
	"fmt"
	"os"
	"strings"
)

// SegmentBase selects the value segments and price bands are computed from.
type SegmentBase string

const (
	SegmentBaseUnitPrice    SegmentBase = "unit_price"
	SegmentBaseLogUnitPrice SegmentBase = "log_unit_price"
)

// Segment labels in ascending price order.
const (
	SegmentMass    = "Mass"
	SegmentPremium = "Premium"
	SegmentLuxury  = "Luxury"
)

// RankBuckets lists the fixed page-rank buckets in display order. Missing or
// non-positive ranks fold into the last bucket so every row stays visible in
// rank-distribution views.
var RankBuckets = []string{"1-10", "11-20", "21-50", "51-100", "101+"}

// Config is the explicit configuration threaded into the pipeline entry
// point. Values are fixed for a run; nothing here is per-call.
type Config struct {
	InputDir  string
	OutputDir string

	SegmentBase SegmentBase

	// Price-band quantile edges and labels (len(BandQuantiles) == len(BandLabels)+1).
	BandQuantiles []float64
	BandLabels    []string

	// Segmentation quantile thresholds.
	SegmentP50 float64
	SegmentP85 float64

	// Sheet-count plausibility bounds; totals outside are flagged, not dropped.
	MinTotalSheets float64
	MaxTotalSheets float64

	Stopwords   map[string]struct{}
	TopKeywords int

	// Lowercased, space-stripped substrings identifying the own brand.
	OwnBrandPatterns []string

	// Also write a report.xlsx workbook next to the CSV artifacts.
	ExcelReport bool
}

// defaultStopwords are packaging and marketing boilerplate terms excluded
// from keyword extraction.
var defaultStopwords = []string{
	"패드", "대용량", "기획", "세트", "증정", "본품", "리필", "한정",
	"특가", "정품", "미니", "휴대용", "증정품", "기획전", "단독", "구성",
}

// Default returns the stock configuration.
func Default() Config {
	stop := make(map[string]struct{}, len(defaultStopwords))
	for _, w := range defaultStopwords {
		stop[w] = struct{}{}
	}
	return Config{
		InputDir:         "input",
		OutputDir:        "output",
		SegmentBase:      SegmentBaseUnitPrice,
		BandQuantiles:    []float64{0.0, 0.2, 0.4, 0.6, 0.8, 1.0},
		BandLabels:       []string{"P0-20", "P20-40", "P40-60", "P60-80", "P80-100"},
		SegmentP50:       0.50,
		SegmentP85:       0.85,
		MinTotalSheets:   10,
		MaxTotalSheets:   1000,
		Stopwords:        stop,
		TopKeywords:      20,
		OwnBrandPatterns: []string{"calmf", "캄프"},
		ExcelReport:      true,
	}
}

// FromEnv builds a configuration from the defaults plus environment
// overrides. Call godotenv.Load first when a .env file should apply.
func FromEnv() (Config, error) {
	cfg := Default()
	if v := os.Getenv("INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SEGMENT_BASE"); v != "" {
		cfg.SegmentBase = SegmentBase(v)
	}
	if v := os.Getenv("OWN_BRAND_PATTERNS"); v != "" {
		var pats []string
		for _, p := range strings.Split(v, ",") {
			p = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p)), " ", "")
			if p != "" {
				pats = append(pats, p)
			}
		}
		cfg.OwnBrandPatterns = pats
	}
	if v := os.Getenv("EXCEL_REPORT"); v != "" {
		cfg.ExcelReport = v == "1" || strings.EqualFold(v, "true")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.SegmentBase != SegmentBaseUnitPrice && c.SegmentBase != SegmentBaseLogUnitPrice {
		return fmt.Errorf("segment base must be %q or %q, got %q",
			SegmentBaseUnitPrice, SegmentBaseLogUnitPrice, c.SegmentBase)
	}
	if len(c.BandQuantiles) != len(c.BandLabels)+1 {
		return fmt.Errorf("band quantiles/labels mismatch: %d edges for %d labels",
			len(c.BandQuantiles), len(c.BandLabels))
	}
	for i := 1; i < len(c.BandQuantiles); i++ {
		if c.BandQuantiles[i] < c.BandQuantiles[i-1] {
			return fmt.Errorf("band quantiles must be non-decreasing")
		}
	}
	if c.MinTotalSheets > c.MaxTotalSheets {
		return fmt.Errorf("sheet bounds inverted: min %v > max %v", c.MinTotalSheets, c.MaxTotalSheets)
	}
	if c.TopKeywords <= 0 {
		return fmt.Errorf("top keywords must be positive, got %d", c.TopKeywords)
	}
	return nil
}
