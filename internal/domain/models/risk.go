package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MetricKey identifies a risk metric in score maps and reports
type MetricKey string

const (
	MetricPlatform          MetricKey = "platform"
	MetricRiskyPermissions  MetricKey = "risky-permissions"
	MetricCleartext         MetricKey = "cleartext"
	MetricSystemUID         MetricKey = "system-uid"
	MetricHostileDownloader MetricKey = "hostile-downloader"
)

// AllMetrics lists every metric kind in reporting order
var AllMetrics = []MetricKey{
	MetricPlatform,
	MetricRiskyPermissions,
	MetricCleartext,
	MetricSystemUID,
	MetricHostileDownloader,
}

// DefaultMetrics are the metrics that make up the headline device score
var DefaultMetrics = []MetricKey{
	MetricPlatform,
	MetricRiskyPermissions,
	MetricCleartext,
}

// ParseMetricKey validates a metric name
func ParseMetricKey(s string) (MetricKey, bool) {
	for _, k := range AllMetrics {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Formula selects how a raw metric count is turned into a probability
type Formula string

const (
	// FormulaRatio is |A_t \ A_baseline| / |A_t|
	FormulaRatio Formula = "ratio"
	// FormulaOddsRatio updates the prior odds of LAMBDA_I by the likelihood ratio iota
	FormulaOddsRatio Formula = "odds-ratio"
)

// ParseFormula validates a formula name
func ParseFormula(s string) (Formula, bool) {
	switch Formula(s) {
	case FormulaRatio, FormulaOddsRatio:
		return Formula(s), true
	}
	return "", false
}

// Rating is the band a total device score falls into
type Rating string

const (
	RatingVeryLow  Rating = "VERY LOW"
	RatingLow      Rating = "LOW"
	RatingMedium   Rating = "MEDIUM"
	RatingHigh     Rating = "HIGH"
	RatingVeryHigh Rating = "VERY HIGH"
	RatingElevated Rating = "ELEVATED"
	RatingError    Rating = "ERROR"
)

// MaxScore is the nominal upper bound of a device score
const MaxScore = 10.0

// Interpret maps a total score to its rating band. Each band is
// exclusive at the low end and inclusive at the high end, except
// VERY LOW which also includes 0.
func Interpret(score float64) Rating {
	switch {
	case math.IsNaN(score) || score < 0:
		return RatingError
	case score <= 2.5:
		return RatingVeryLow
	case score <= 4.5:
		return RatingLow
	case score <= 5.5:
		return RatingMedium
	case score <= 6.5:
		return RatingHigh
	case score <= 7.5:
		return RatingVeryHigh
	case score <= MaxScore:
		return RatingElevated
	}
	return RatingError
}

// RiskMetricResult is the outcome of one metric for one device
type RiskMetricResult struct {
	Metric        MetricKey `json:"metric"`
	APILevel      int       `json:"api_level"`
	Formula       Formula   `json:"formula"`
	RawNormalized float64   `json:"raw_normalized"`
	RawBaseline   float64   `json:"raw_baseline"`
	Phi           float64   `json:"phi"`
	LambdaI       float64   `json:"lambda_i"`
	Score         float64   `json:"score"`
	RelatedApps   []string  `json:"related_apps,omitempty"`
}

// UnavailableMetric records a metric that was requested but could not be scored
type UnavailableMetric struct {
	Metric MetricKey `json:"metric"`
	Reason string    `json:"reason"`
}

// Assessment is the aggregate risk score of one device
type Assessment struct {
	ID          uuid.UUID             `json:"id"`
	Build       BuildInfo             `json:"build"`
	Hardware    HardwareInfo          `json:"hardware"`
	Normalized  bool                  `json:"normalized"`
	IncludeGMS  bool                  `json:"include_gms"`
	Scores      map[MetricKey]float64 `json:"scores"`
	Results     []RiskMetricResult    `json:"results"`
	Unavailable []UnavailableMetric   `json:"unavailable,omitempty"`
	Total       float64               `json:"total"`
	Rating      Rating                `json:"rating"`
	ComputedAt  time.Time             `json:"computed_at"`
}

// Score returns the weighted score of a metric and whether it was computed
func (a *Assessment) Score(key MetricKey) (float64, bool) {
	v, ok := a.Scores[key]
	return v, ok
}
