package types

// ListingRecord is one scraped product listing from one weekly snapshot file.
// Raw cell text is kept as-is; the empty string marks an absent value.
type ListingRecord struct {
	WeekStartDate string `json:"week_start_date"`
	Category1     string `json:"category1,omitempty"`
	Category2     string `json:"category2,omitempty"`
	Category3     string `json:"category3,omitempty"`
	Category4     string `json:"category4,omitempty"`
	Brand         string `json:"brand,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
	PriceRaw      string `json:"price,omitempty"`     // may carry thousands separators
	PageRankRaw   string `json:"page_rank,omitempty"` // 1-based search rank
	SourceFile    string `json:"source_file,omitempty"`
}

// NormalizedRecord carries a listing plus everything derived from it row-wise.
// Nil pointers mean "not computable" and stay nil downstream; they are never
// substituted with zero.
type NormalizedRecord struct {
	ListingRecord

	CategoryGroup string `json:"category_group,omitempty"` // category2, else category1; "" = none

	Price    *float64 `json:"price_value,omitempty"`
	PageRank *float64 `json:"page_rank_value,omitempty"`

	SheetsPerUnit       *float64 `json:"sheets_per_unit,omitempty"`
	Units               int      `json:"units"`
	TotalSheets         *float64 `json:"total_sheets,omitempty"`
	HasSheets           bool     `json:"has_sheets"`
	IsUnrealisticSheets bool     `json:"is_unrealistic_sheets"`
	IsValidSheets       bool     `json:"is_valid_sheets"`

	UnitPrice    *float64 `json:"unit_price,omitempty"`
	LogUnitPrice *float64 `json:"log_unit_price,omitempty"`
}

// CohortKey identifies one (period, category group) cohort.
type CohortKey struct {
	WeekStartDate string `json:"week_start_date"`
	CategoryGroup string `json:"category_group"`
}

// Less orders keys by week then category group.
func (k CohortKey) Less(o CohortKey) bool {
	if k.WeekStartDate != o.WeekStartDate {
		return k.WeekStartDate < o.WeekStartDate
	}
	return k.CategoryGroup < o.CategoryGroup
}

// CohortStats holds the per-cohort statistics every downstream classification
// joins against. Pointer fields are nil when the cohort lacks the data to
// compute them (quantile-derived fields need at least two non-null values).
type CohortStats struct {
	Key      CohortKey
	RowCount int

	MeanLog      *float64 // mean of log unit price
	StdLog       *float64 // population std dev, nil when <= 0
	MedianLog    *float64
	MADLogScaled *float64 // 1.4826 * MAD, nil when MAD <= 0

	P50 *float64 // segmentation-base quantiles, nil when < 2 valid values
	P85 *float64

	Q1         *float64 // log unit price quartiles, nil when < 2 values
	Q3         *float64
	IQR        *float64
	LowerBound *float64 // Tukey fences
	UpperBound *float64

	// BandCuts are the 0/20/40/60/80/100th percentile cut points of the
	// segmentation base, forced monotonically non-decreasing. Nil when the
	// cohort has < 2 valid base values.
	BandCuts []float64

	// Exposure denominators over all cohort rows.
	TotalWeightInv     float64 // sum of 1/rank for rank > 0
	TotalWeightInvSqrt float64 // sum of 1/sqrt(rank) for rank > 0
}

// Classification is the per-row output of the segmentation and outlier
// engine. Empty strings mark unassignable segments/bands.
type Classification struct {
	ZLog         *float64 `json:"z_log,omitempty"`
	RobustZ      *float64 `json:"robust_z,omitempty"`
	Segment      string   `json:"segment,omitempty"`    // Mass, Premium, Luxury
	PriceBand    string   `json:"price_band,omitempty"` // P0-20 .. P80-100
	IsOutlierIQR bool     `json:"is_outlier_iqr"`
	RankBucket   string   `json:"rank_bucket_4"`
}

// ClassifiedRow pairs a normalized row with its classification.
type ClassifiedRow struct {
	NormalizedRecord
	Classification
}
