package risk

import (
	"maps"
	"slices"

	"uraniborg-lab/internal/domain/models"
)

// DefaultLambdaI is the prior probability shared by every metric
const DefaultLambdaI = 0.25

// Params is the per-metric, per-API-level configuration of an analyzer.
// BaseScore values were obtained by running the metric with normalization
// off against the matching baseline build.
type Params struct {
	BaseScore float64
	// UngrantedScore is the total of requested-but-not-granted permissions on the baseline.
	// Recorded for reference only.
	UngrantedScore float64
	Phi            float64
	LambdaI        float64
}

type paramKey struct {
	metric   models.MetricKey
	apiLevel int
}

// phi is the damage potential of each metric
var phi = map[models.MetricKey]float64{
	models.MetricPlatform:          6.0,
	models.MetricSystemUID:         6.0,
	models.MetricRiskyPermissions:  3.0,
	models.MetricCleartext:         1.0,
	models.MetricHostileDownloader: 2.5,
}

// Phi returns the damage potential of a metric
func Phi(metric models.MetricKey) float64 {
	return phi[metric]
}

type baseRow struct {
	platform, systemUID, risky, ungranted, cleartext float64
}

// baseScores per API level
var baseScores = map[int]baseRow{
	24: {platform: 38, systemUID: 17, risky: 307.5, ungranted: 175, cleartext: 15},
	25: {platform: 38, systemUID: 17, risky: 307.5, ungranted: 175, cleartext: 15},
	26: {platform: 42, systemUID: 19, risky: 340, ungranted: 167, cleartext: 18},
	27: {platform: 42, systemUID: 19, risky: 340, ungranted: 167, cleartext: 18},
	28: {platform: 41, systemUID: 17, risky: 342.5, ungranted: 160, cleartext: 12},
	29: {platform: 49, systemUID: 23, risky: 385, ungranted: 190, cleartext: 8},
	30: {platform: 49, systemUID: 24, risky: 462.5, ungranted: 187.5, cleartext: 8},
	31: {platform: 45, systemUID: 25, risky: 485, ungranted: 175, cleartext: 8},
	33: {platform: 50, systemUID: 30, risky: 500, ungranted: 200, cleartext: 9},
}

var paramTable = buildParamTable()

func buildParamTable() map[paramKey]Params {
	t := make(map[paramKey]Params, len(baseScores)*4)
	for level, row := range baseScores {
		t[paramKey{models.MetricPlatform, level}] = Params{BaseScore: row.platform}
		t[paramKey{models.MetricSystemUID, level}] = Params{BaseScore: row.systemUID}
		t[paramKey{models.MetricRiskyPermissions, level}] = Params{BaseScore: row.risky, UngrantedScore: row.ungranted}
		t[paramKey{models.MetricCleartext, level}] = Params{BaseScore: row.cleartext}
	}
	for k, p := range t {
		p.Phi = phi[k.metric]
		p.LambdaI = DefaultLambdaI
		t[k] = p
	}
	return t
}

// LookupParams returns the parameters of a table-driven metric at an API level
func LookupParams(metric models.MetricKey, apiLevel int) (Params, bool) {
	p, ok := paramTable[paramKey{metric, apiLevel}]
	return p, ok
}

// SupportedAPILevels lists API levels with a parameter set, ascending
func SupportedAPILevels() []int {
	return slices.Sorted(maps.Keys(baseScores))
}
