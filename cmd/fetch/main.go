// Command fetch pulls a weekly listing snapshot from the Naver Shopping
// search API and writes it as a CSV the pipeline can ingest.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"price-insights-go/internal/logger"
	"price-insights-go/internal/naver"
)

func main() {
	_ = godotenv.Load() // loads .env

	query := flag.String("query", "", "search query (required)")
	maxResults := flag.Int("max", 500, "maximum results to fetch")
	sortOrder := flag.String("sort", naver.SortAccuracy, "sort order: sim, date, asc, dsc")
	out := flag.String("out", "", "output CSV path (default input/<query>_<week>.csv)")
	flag.Parse()

	log := logger.New().WithRun("").WithField("service", "price-insights-fetch")
	if *query == "" {
		log.Fatal("missing -query")
	}

	client, err := naver.NewClient(os.Getenv("NAVER_CLIENT_ID"), os.Getenv("NAVER_CLIENT_SECRET"))
	if err != nil {
		log.WithField("error", err.Error()).Fatal("client init failed")
	}

	week := weekStart(time.Now())
	path := *out
	if path == "" {
		path = fmt.Sprintf("input/%s_%s.csv", *query, week)
	}

	log.WithField("query", *query).WithField("max", *maxResults).Info("fetching snapshot")
	products, err := client.SearchAll(*query, *maxResults, *sortOrder)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("fetch failed")
	}
	log.WithField("products", len(products)).Info("fetch complete")

	if err := writeSnapshot(path, week, products); err != nil {
		log.WithField("error", err.Error()).Fatal("failed to write snapshot")
	}
	log.WithField("path", path).Info("snapshot written")
}

// weekStart returns the Monday of t's week, the period key of the snapshot.
func weekStart(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format("2006-01-02")
}

func writeSnapshot(path, week string, products []naver.Product) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"week_start_date", "category1", "category2", "category3", "category4",
		"brand", "product_name", "price", "page_rank",
		"mall_name", "product_id", "link",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			week, p.Category1, p.Category2, p.Category3, p.Category4,
			p.Brand, p.Title, p.Price, strconv.Itoa(p.Rank),
			p.MallName, p.ProductID, p.Link,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
