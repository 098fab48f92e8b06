package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"price-insights-go/internal/config"
	"price-insights-go/internal/logger"
	"price-insights-go/internal/pipeline"
	"price-insights-go/internal/types"
)

// ReportFile is the name of the optional combined XLSX artifact.
const ReportFile = "report.xlsx"

type table struct {
	name   string // artifact name without extension
	header []string
	rows   [][]string
}

// WriteOutputs writes every output table as <name>.csv under dir, plus a
// combined report workbook when configured. The caller only invokes this
// after the whole result is computed, keeping runs all-or-nothing.
func WriteOutputs(dir string, cfg config.Config, res *pipeline.Result) error {
	log := logger.New().WithField("component", "dataset.writer").WithField("output_dir", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tables := buildTables(res)
	for _, t := range tables {
		path := filepath.Join(dir, t.name+".csv")
		if err := writeCSV(path, t); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.WithField("artifact", t.name).WithField("rows", len(t.rows)).Info("artifact written")
	}
	if cfg.ExcelReport {
		path := filepath.Join(dir, ReportFile)
		if err := writeWorkbook(path, tables); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.WithField("artifact", ReportFile).Info("report workbook written")
	}
	return nil
}

func writeCSV(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(t.rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeWorkbook(path string, tables []table) error {
	f := excelize.NewFile()
	defer f.Close()
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return err
		}
		if err := setRow(f, t.name, 1, t.header); err != nil {
			return err
		}
		for r, row := range t.rows {
			if err := setRow(f, t.name, r+2, row); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func buildTables(res *pipeline.Result) []table {
	return []table{
		cleanLong(res),
		positioningScatter(res),
		positioningSummary(res),
		corrRankPrice(res),
		categorySOV(res),
		marketGap(res),
		topKeywords(res),
		ownBrandProducts(res),
		ownBrandVsMarket(res),
		outliers(res),
		dataQuality(res),
	}
}

func cleanLong(res *pipeline.Result) table {
	t := table{
		name: "clean_long",
		header: []string{
			"week_start_date", "category1", "category2", "category3", "category4",
			"brand", "product_name", "price", "page_rank", "source_file",
			"category_group", "sheets_per_unit", "units", "total_sheets",
			"has_sheets", "is_unrealistic_sheets", "is_valid_sheets",
			"unit_price", "log_unit_price", "z_log", "robust_z",
			"p50", "p85", "segment", "price_band", "rank_bucket_4",
			"q1", "q3", "iqr", "lower_bound", "upper_bound", "is_outlier_iqr",
		},
	}
	for _, r := range res.Rows {
		cs := res.Cohorts[types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}]
		var p50, p85, q1, q3, iqr, lower, upper *float64
		if cs != nil {
			p50, p85 = cs.P50, cs.P85
			q1, q3, iqr = cs.Q1, cs.Q3, cs.IQR
			lower, upper = cs.LowerBound, cs.UpperBound
		}
		t.rows = append(t.rows, []string{
			r.WeekStartDate, r.Category1, r.Category2, r.Category3, r.Category4,
			r.Brand, r.ProductName, fmtFloatPtr(r.Price), fmtFloatPtr(r.PageRank), r.SourceFile,
			r.CategoryGroup, fmtFloatPtr(r.SheetsPerUnit), strconv.Itoa(r.Units), fmtFloatPtr(r.TotalSheets),
			fmtBool(r.HasSheets), fmtBool(r.IsUnrealisticSheets), fmtBool(r.IsValidSheets),
			fmtFloatPtr(r.UnitPrice), fmtFloatPtr(r.LogUnitPrice), fmtFloatPtr(r.ZLog), fmtFloatPtr(r.RobustZ),
			fmtFloatPtr(p50), fmtFloatPtr(p85), r.Segment, r.PriceBand, r.RankBucket,
			fmtFloatPtr(q1), fmtFloatPtr(q3), fmtFloatPtr(iqr), fmtFloatPtr(lower), fmtFloatPtr(upper),
			fmtBool(r.IsOutlierIQR),
		})
	}
	return t
}

func positioningScatter(res *pipeline.Result) table {
	t := table{
		name: "positioning_scatter",
		header: []string{
			"week_start_date", "category1", "category2", "category3", "category_group",
			"brand", "product_name", "page_rank", "unit_price", "log_unit_price",
			"segment", "is_valid_sheets",
		},
	}
	for _, r := range res.Rows {
		t.rows = append(t.rows, []string{
			r.WeekStartDate, r.Category1, r.Category2, r.Category3, r.CategoryGroup,
			r.Brand, r.ProductName, fmtFloatPtr(r.PageRank), fmtFloatPtr(r.UnitPrice),
			fmtFloatPtr(r.LogUnitPrice), r.Segment, fmtBool(r.IsValidSheets),
		})
	}
	return t
}

func positioningSummary(res *pipeline.Result) table {
	t := table{
		name: "positioning_summary",
		header: []string{
			"week_start_date", "category_group", "rank_bucket_4",
			"item_count", "median", "q1", "q3", "iqr",
		},
	}
	for _, r := range res.PositioningSummary {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup, r.RankBucket,
			strconv.Itoa(r.ItemCount), fmtFloat(r.Median), fmtFloat(r.Q1), fmtFloat(r.Q3), fmtFloat(r.IQR),
		})
	}
	return t
}

func corrRankPrice(res *pipeline.Result) table {
	t := table{
		name: "corr_rank_price",
		header: []string{
			"week_start_date", "category_group", "n",
			"spearman_corr", "spearman_p", "kendall_corr", "kendall_p", "slope", "r2",
		},
	}
	for _, r := range res.Correlations {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup, strconv.Itoa(r.N),
			fmtFloatPtr(r.SpearmanCorr), fmtFloatPtr(r.SpearmanP),
			fmtFloatPtr(r.KendallCorr), fmtFloatPtr(r.KendallP),
			fmtFloatPtr(r.Slope), fmtFloatPtr(r.R2),
		})
	}
	return t
}

func categorySOV(res *pipeline.Result) table {
	t := table{
		name: "category_sov",
		header: []string{
			"week_start_date", "category_group", "brand",
			"item_count", "weight_inv", "weight_inv_sqrt",
			"total_count", "total_weight_inv", "total_weight_inv_sqrt",
			"sov", "weighted_sov_inv_rank", "weighted_sov_inv_sqrt",
		},
	}
	for _, r := range res.BrandShares {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup, r.Brand,
			strconv.Itoa(r.ItemCount), fmtFloat(r.WeightInv), fmtFloat(r.WeightInvSqrt),
			strconv.Itoa(r.TotalCount), fmtFloat(r.TotalWeightInv), fmtFloat(r.TotalWeightInvSqrt),
			fmtFloatPtr(r.SOV), fmtFloatPtr(r.WeightedSOVInvRank), fmtFloatPtr(r.WeightedSOVInvSqrt),
		})
	}
	return t
}

func marketGap(res *pipeline.Result) table {
	t := table{
		name: "market_gap",
		header: []string{
			"week_start_date", "category_group", "price_band",
			"item_count", "brand_count", "weight_inv_sqrt",
			"total_count", "total_weight_inv_sqrt",
			"weighted_sov", "supply_share", "gap_score",
		},
	}
	for _, r := range res.BandGaps {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup, r.PriceBand,
			strconv.Itoa(r.ItemCount), strconv.Itoa(r.BrandCount), fmtFloat(r.WeightInvSqrt),
			strconv.Itoa(r.TotalCount), fmtFloat(r.TotalWeightInvSqrt),
			fmtFloatPtr(r.WeightedSOV), fmtFloatPtr(r.SupplyShare), fmtFloatPtr(r.GapScore),
		})
	}
	return t
}

func topKeywords(res *pipeline.Result) table {
	t := table{
		name:   "top_keywords",
		header: []string{"week_start_date", "category_group", "token", "count", "token_rank"},
	}
	for _, r := range res.Keywords {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup, r.Token,
			strconv.Itoa(r.Count), strconv.Itoa(r.TokenRank),
		})
	}
	return t
}

func ownBrandProducts(res *pipeline.Result) table {
	t := table{
		name: "own_brand_products",
		header: []string{
			"week_start_date", "category_group", "brand", "product_name",
			"page_rank", "price", "unit_price", "log_unit_price",
			"segment", "z_log", "robust_z",
		},
	}
	for _, r := range res.OwnBrandRows {
		t.rows = append(t.rows, []string{
			r.WeekStartDate, r.CategoryGroup, r.Brand, r.ProductName,
			fmtFloatPtr(r.PageRank), fmtFloatPtr(r.Price), fmtFloatPtr(r.UnitPrice),
			fmtFloatPtr(r.LogUnitPrice), r.Segment, fmtFloatPtr(r.ZLog), fmtFloatPtr(r.RobustZ),
		})
	}
	return t
}

func ownBrandVsMarket(res *pipeline.Result) table {
	t := table{
		name: "own_brand_vs_market",
		header: []string{
			"week_start_date", "category_group",
			"market_median_unit_price", "own_median_unit_price", "own_item_count", "premium_index",
		},
	}
	for _, r := range res.OwnBrandComparison {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup,
			fmtFloat(r.MarketMedianUnitPrice), fmtFloatPtr(r.OwnMedianUnitPrice),
			strconv.Itoa(r.OwnItemCount), fmtFloatPtr(r.PremiumIndex),
		})
	}
	return t
}

func outliers(res *pipeline.Result) table {
	t := table{
		name: "outliers",
		header: []string{
			"week_start_date", "category_group", "brand", "product_name",
			"page_rank", "price", "unit_price", "log_unit_price",
			"lower_bound", "upper_bound",
		},
	}
	for _, r := range res.Outliers {
		cs := res.Cohorts[types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}]
		var lower, upper *float64
		if cs != nil {
			lower, upper = cs.LowerBound, cs.UpperBound
		}
		t.rows = append(t.rows, []string{
			r.WeekStartDate, r.CategoryGroup, r.Brand, r.ProductName,
			fmtFloatPtr(r.PageRank), fmtFloatPtr(r.Price), fmtFloatPtr(r.UnitPrice),
			fmtFloatPtr(r.LogUnitPrice), fmtFloatPtr(lower), fmtFloatPtr(upper),
		})
	}
	return t
}

func dataQuality(res *pipeline.Result) table {
	t := table{
		name: "data_quality",
		header: []string{
			"week_start_date", "category_group", "total_count",
			"has_sheets_rate", "invalid_sheets_rate", "outlier_rate", "missing_sheets_rate",
		},
	}
	for _, r := range res.DataQuality {
		t.rows = append(t.rows, []string{
			r.Key.WeekStartDate, r.Key.CategoryGroup, strconv.Itoa(r.TotalCount),
			fmtFloat(r.HasSheetsRate), fmtFloat(r.InvalidSheetsRate),
			fmtFloat(r.OutlierRate), fmtFloat(r.MissingSheetsRate),
		})
	}
	return t
}

// fmtFloat uses the shortest representation that round-trips exactly.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// fmtFloatPtr writes nil as an empty cell.
func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func fmtBool(v bool) string {
	return strconv.FormatBool(v)
}
