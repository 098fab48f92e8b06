package types

// BrandShare is one (week, category group, brand) exposure row. The cohort
// totals are repeated on every row so the table stands alone when re-read.
type BrandShare struct {
	Key       CohortKey
	Brand     string
	ItemCount int

	WeightInv     float64 // sum of 1/rank over the brand's ranked rows
	WeightInvSqrt float64 // sum of 1/sqrt(rank)

	TotalCount         int
	TotalWeightInv     float64
	TotalWeightInvSqrt float64

	SOV                *float64 // item_count / total_count
	WeightedSOVInvRank *float64 // weight_inv / total_weight_inv
	WeightedSOVInvSqrt *float64 // weight_inv_sqrt / total_weight_inv_sqrt
}

// BandGap is one (week, category group, price band) market-gap row.
type BandGap struct {
	Key       CohortKey
	PriceBand string

	ItemCount     int
	BrandCount    int
	WeightInvSqrt float64

	TotalCount         int
	TotalWeightInvSqrt float64

	WeightedSOV *float64
	SupplyShare *float64
	GapScore    *float64 // weighted_sov / supply_share, nil when supply share is 0
}

// CorrelationRow reports the rank-price association for one cohort.
// Every cohort appears; all statistics are nil when N < 2.
type CorrelationRow struct {
	Key CohortKey
	N   int

	SpearmanCorr *float64
	SpearmanP    *float64
	KendallCorr  *float64
	KendallP     *float64
	Slope        *float64 // OLS slope of page_rank on log unit price
	R2           *float64
}

// KeywordRow is one token of a cohort's top-N keyword list.
type KeywordRow struct {
	Key       CohortKey
	Token     string
	Count     int
	TokenRank int // 1-based, descending count, first-seen tie order
}

// PositioningSummaryRow summarizes unit prices of validated rows for one
// (cohort, rank bucket) cell.
type PositioningSummaryRow struct {
	Key        CohortKey
	RankBucket string

	ItemCount int
	Median    float64
	Q1        float64
	Q3        float64
	IQR       float64
}

// OwnBrandComparisonRow compares the configured own brand against its
// cohort's market median. Emitted for every cohort with at least one
// validated unit price.
type OwnBrandComparisonRow struct {
	Key CohortKey

	MarketMedianUnitPrice float64
	OwnMedianUnitPrice    *float64
	OwnItemCount          int
	PremiumIndex          *float64 // own median / market median
}

// DataQualityRow aggregates per-row parse and outlier issues into cohort
// rates; per-row failures surface here instead of as errors.
type DataQualityRow struct {
	Key CohortKey

	TotalCount        int
	HasSheetsRate     float64
	MissingSheetsRate float64
	InvalidSheetsRate float64
	OutlierRate       float64
}
