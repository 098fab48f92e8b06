// Package dataset reads weekly snapshot files into listing records and
// writes the derived output tables. Snapshots are CSV or XLSX with a header
// row; unrecognized extra columns are ignored, missing required columns are
// fatal per the uniform-schema rule.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"price-insights-go/internal/logger"
	"price-insights-go/internal/types"
)

// category1..category4 are optional; everything else unrecognized is ignored.
var requiredColumns = []string{"week_start_date", "brand", "product_name", "price", "page_rank"}

// Discover lists snapshot files under inputDir, falling back to the current
// directory, sorted by name. No discoverable input is a fatal condition.
func Discover(inputDir string) ([]string, error) {
	paths, err := glob(inputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		paths, err = glob(".")
		if err != nil {
			return nil, err
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files found in %q or current directory", inputDir)
	}
	sort.Strings(paths)
	return paths, nil
}

func glob(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.csv", "*.xlsx"} {
		matched, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matched...)
	}
	return paths, nil
}

// Load reads every file and concatenates the rows, tagging each with its
// source file name.
func Load(paths []string) ([]types.ListingRecord, error) {
	log := logger.New().WithField("component", "dataset.loader")
	var out []types.ListingRecord
	for _, path := range paths {
		var (
			recs []types.ListingRecord
			err  error
		)
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			recs, err = loadXLSX(path)
		} else {
			recs, err = loadCSV(path)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.WithField("path", path).WithField("rows", len(recs)).Info("snapshot loaded")
		out = append(out, recs...)
	}
	return out, nil
}

func loadCSV(path string) ([]types.ListingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}
	var out []types.ListingRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, toRecord(row, cols, filepath.Base(path)))
	}
	return out, nil
}

func loadXLSX(path string) ([]types.ListingRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]types.ListingRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, toRecord(row, cols, filepath.Base(path)))
	}
	return out, nil
}

// columnIndex maps recognized column names to their position. Header names
// are matched case-insensitively after trimming.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func toRecord(row []string, cols map[string]int, source string) types.ListingRecord {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return types.ListingRecord{
		WeekStartDate: get("week_start_date"),
		Category1:     get("category1"),
		Category2:     get("category2"),
		Category3:     get("category3"),
		Category4:     get("category4"),
		Brand:         get("brand"),
		ProductName:   get("product_name"),
		PriceRaw:      get("price"),
		PageRankRaw:   get("page_rank"),
		SourceFile:    source,
	}
}
