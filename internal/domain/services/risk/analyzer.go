// Package risk implements the preloaded-app risk metrics and the aggregator
// that combines them into a device score.
package risk

import (
	"fmt"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/internal/domain/services/whitelist"
	"uraniborg-lab/internal/infrastructure/baseline"
	"uraniborg-lab/internal/metrics"
	"uraniborg-lab/pkg/logger"
)

// PlatformApps is the output of the platform stage that later metrics consume
type PlatformApps struct {
	// Apps are the non-excluded packages carrying the platform signature, with or without code
	Apps models.NameList
	// SystemUID is the subset of Apps running as android.uid.system
	SystemUID models.NameList
}

// AnalyzePlatform collects the platform-signed packages of a device
func AnalyzePlatform(device *models.DeviceRecord, policy *whitelist.Policy) PlatformApps {
	sig := device.PlatformSignature()
	var apps, systemUID []string
	for i := range device.Packages {
		pkg := &device.Packages[i]
		if policy.IsExcluded(pkg.Name) || !pkg.SignedBy(sig) {
			continue
		}
		apps = append(apps, pkg.Name)
		if pkg.SharedUID() == models.SystemSharedUID {
			systemUID = append(systemUID, pkg.Name)
		}
	}
	return PlatformApps{
		Apps:      models.NewNameList(apps...),
		SystemUID: models.NewNameList(systemUID...),
	}
}

// Target bundles a device with the reference data it is scored against
type Target struct {
	Device   *models.DeviceRecord
	Baseline *baseline.Reference
	Policy   *whitelist.Policy
	Platform PlatformApps
}

// NewTarget runs the platform stage and returns a ready-to-score target
func NewTarget(device *models.DeviceRecord, ref *baseline.Reference, policy *whitelist.Policy) *Target {
	return &Target{
		Device:   device,
		Baseline: ref,
		Policy:   policy,
		Platform: AnalyzePlatform(device, policy),
	}
}

// MismatchHandler receives policy mismatches as they are found
type MismatchHandler func(models.PolicyMismatch)

// Option configures an Analyzer
type Option func(*Analyzer)

// WithGMSDiscount controls whether genuine GMS packages are left out of scoring
func WithGMSDiscount(on bool) Option {
	return func(a *Analyzer) { a.gmsDiscount = on }
}

// WithFormula selects the normalization formula. Ignored by the hostile downloader metric.
func WithFormula(f models.Formula) Option {
	return func(a *Analyzer) { a.formula = f }
}

// WithCatalog replaces the permission catalog used by the risky permissions metric
func WithCatalog(c *Catalog) Option {
	return func(a *Analyzer) { a.catalog = c }
}

// WithMismatchHandler registers a callback for policy mismatches
func WithMismatchHandler(h MismatchHandler) Option {
	return func(a *Analyzer) { a.onMismatch = h }
}

// Analyzer scores one metric for one device at one API level.
// It is not safe for concurrent use and should not be shared across devices.
type Analyzer struct {
	kind        models.MetricKey
	apiLevel    int
	params      Params
	formula     models.Formula
	gmsDiscount bool
	catalog     *Catalog
	onMismatch  MismatchHandler
	logger      *logger.Logger

	relatedApps []string
	reported    map[string]struct{}
}

func newAnalyzer(kind models.MetricKey, apiLevel int, params Params, log *logger.Logger, opts []Option) *Analyzer {
	a := &Analyzer{
		kind:        kind,
		apiLevel:    apiLevel,
		params:      params,
		formula:     models.FormulaRatio,
		gmsDiscount: true,
		catalog:     DefaultCatalog(),
		logger:      log.WithMetric(string(kind), apiLevel),
		reported:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetScorer returns the analyzer of a table-driven metric for an API level
func GetScorer(kind models.MetricKey, apiLevel int, log *logger.Logger, opts ...Option) (*Analyzer, error) {
	switch kind {
	case models.MetricPlatform, models.MetricSystemUID, models.MetricRiskyPermissions, models.MetricCleartext:
	case models.MetricHostileDownloader:
		return nil, fmt.Errorf("%s: %w", kind, models.ErrScorerUnavailable)
	default:
		return nil, fmt.Errorf("%q: %w", kind, models.ErrUnknownMetric)
	}

	params, ok := LookupParams(kind, apiLevel)
	if !ok {
		return nil, &models.ConfigurationError{Metric: kind, APILevel: apiLevel, Err: models.ErrUnsupportedAPILevel}
	}
	return newAnalyzer(kind, apiLevel, params, log, opts), nil
}

// NewHostileDownloader constructs the hostile downloader metric directly.
// It always uses the odds-ratio formula.
func NewHostileDownloader(apiLevel int, log *logger.Logger, opts ...Option) *Analyzer {
	params := Params{
		Phi:     phi[models.MetricHostileDownloader],
		LambdaI: DefaultLambdaI,
	}
	a := newAnalyzer(models.MetricHostileDownloader, apiLevel, params, log, opts)
	a.formula = models.FormulaOddsRatio
	return a
}

// Metric returns the metric key
func (a *Analyzer) Metric() models.MetricKey { return a.kind }

// APILevel returns the API level the analyzer was configured for
func (a *Analyzer) APILevel() int { return a.apiLevel }

// Params returns the analyzer's parameters
func (a *Analyzer) Params() Params { return a.params }

// Formula returns the normalization formula in use
func (a *Analyzer) Formula() models.Formula { return a.formula }

// RelatedApps returns the packages that contributed to the first non-empty normalized run
func (a *Analyzer) RelatedApps() []string {
	return append([]string(nil), a.relatedApps...)
}

// ComputeBaseScore returns the raw metric value. With normalize off it
// reproduces how the BASE_SCORE constants were measured; with it on the
// whitelist and baseline suppression apply.
func (a *Analyzer) ComputeBaseScore(t *Target, normalize bool) float64 {
	var (
		raw     float64
		related []string
	)
	switch a.kind {
	case models.MetricPlatform:
		raw, related = a.platformSignature(t, normalize)
	case models.MetricSystemUID:
		raw, related = a.systemUID(t, normalize)
	case models.MetricRiskyPermissions:
		raw, related = a.riskyPermissions(t, normalize)
	case models.MetricCleartext:
		raw, related = a.cleartextTraffic(t, normalize)
	case models.MetricHostileDownloader:
		raw, related = a.hostileDownloader(t, normalize)
	}

	if normalize && len(a.relatedApps) == 0 && len(related) > 0 {
		a.relatedApps = related
	}
	return raw
}

// ComputeScore returns the weighted contribution of the metric
func (a *Analyzer) ComputeScore(t *Target, normalize bool) float64 {
	return a.Evaluate(t, normalize).Score
}

// Evaluate computes the metric and returns the full result
func (a *Analyzer) Evaluate(t *Target, normalize bool) models.RiskMetricResult {
	res := models.RiskMetricResult{
		Metric:   a.kind,
		APILevel: a.apiLevel,
		Formula:  a.formula,
		Phi:      a.params.Phi,
		LambdaI:  a.params.LambdaI,
	}

	switch a.formula {
	case models.FormulaOddsRatio:
		raw := a.ComputeBaseScore(t, normalize)
		if normalize {
			res.RawNormalized = raw
		} else {
			res.RawBaseline = raw
		}
		res.Score = a.oddsRatio(raw, normalize)
	default:
		res.RawNormalized = a.ComputeBaseScore(t, true)
		res.RawBaseline = a.ComputeBaseScore(t, false)
		res.Score = a.ratio(res.RawNormalized, res.RawBaseline)
	}

	res.RelatedApps = a.RelatedApps()
	a.logger.Debug().
		Float64("raw_normalized", res.RawNormalized).
		Float64("raw_baseline", res.RawBaseline).
		Float64("score", res.Score).
		Msg("metric computed")
	return res
}

// ratio is |A_t \ A_baseline| / |A_t| scaled by PHI, zero when nothing qualifies
func (a *Analyzer) ratio(numerator, denominator float64) float64 {
	r := 0.0
	if denominator != 0 {
		r = numerator / denominator
	}
	a.logger.Debug().Float64("numerator", numerator).Float64("denominator", denominator).Float64("r", r).Msg("ratio")
	return r * a.params.Phi
}

func (a *Analyzer) oddsRatio(raw float64, normalize bool) float64 {
	var likelihood float64
	switch {
	case a.kind == models.MetricHostileDownloader:
		// each extra installer source multiplies the likelihood
		likelihood = 1
		if normalize {
			likelihood = max(raw, 1)
		}
	case a.params.BaseScore != 0:
		likelihood = raw / a.params.BaseScore
	}
	lambdaO := LambdaO(likelihood, a.params.LambdaI)
	a.logger.Debug().Float64("likelihood", likelihood).Float64("lambda_o", lambdaO).Msg("odds ratio")
	return lambdaO * a.params.Phi
}

// LambdaO updates the prior probability lambdaI by the likelihood ratio.
// LambdaO(1, l) == l.
func LambdaO(likelihood, lambdaI float64) float64 {
	return likelihood * lambdaI / (1 + lambdaI*(likelihood-1))
}

// ToOdds converts a probability to odds
func ToOdds(probability float64) float64 {
	return probability / (1 - probability)
}

// ToProbability converts odds to a probability
func ToProbability(odds float64) float64 {
	return odds / (1 + odds)
}

// Decision marks for per-package debug logs
const (
	markCounted    = "+"
	markDiscounted = "-"
	markSkipped    = "^"
	markMismatch   = "!"
)

func (a *Analyzer) trace(mark, pkg, msg string) {
	a.logger.Debug().Str("mark", mark).Str("package", pkg).Msg(msg)
}

// reportMismatch logs and counts a mismatch once per analyzer
func (a *Analyzer) reportMismatch(m *models.PolicyMismatch) {
	key := string(m.Kind) + "/" + m.Package
	if _, seen := a.reported[key]; seen {
		return
	}
	a.reported[key] = struct{}{}

	a.logger.Warn().
		Str("mark", markMismatch).
		Str("kind", string(m.Kind)).
		Str("package", m.Package).
		Str("expected", m.Expected).
		Str("actual", m.Actual).
		Msg("whitelisted package signed by unexpected certificate")
	metrics.PolicyMismatches.WithLabelValues(string(m.Kind)).Inc()
	if a.onMismatch != nil {
		a.onMismatch(*m)
	}
}

// skipGMS reports whether a package is a genuine GMS package that the discount removes
func (a *Analyzer) skipGMS(pkg *models.PackageRecord) bool {
	if !a.gmsDiscount {
		return false
	}
	genuine, mismatch := whitelist.CheckGMS(pkg)
	if mismatch != nil {
		a.reportMismatch(mismatch)
	}
	if genuine {
		a.trace(markSkipped, pkg.Name, "gms package")
	}
	return genuine
}

// skipInstaller reports whether a package is the OEM's verified store client
func (a *Analyzer) skipInstaller(t *Target, pkg *models.PackageRecord) bool {
	trusted, mismatch := t.Policy.CheckInstaller(pkg)
	if mismatch != nil {
		a.reportMismatch(mismatch)
	}
	if trusted {
		a.trace(markSkipped, pkg.Name, "official installer")
	}
	return trusted
}

// skipExcluded reports whether the OEM policy removes a package
func (a *Analyzer) skipExcluded(t *Target, name string) bool {
	if t.Policy.IsExcluded(name) {
		a.trace(markSkipped, name, "excluded by oem whitelist")
		return true
	}
	return false
}

// skipBaseline reports whether a package fuzzy-matches one of the baseline candidates
func (a *Analyzer) skipBaseline(name string, candidates models.NameList) bool {
	matched, ok := whitelist.FuzzyMatch(name, candidates)
	if ok {
		a.logger.Debug().Str("mark", markSkipped).Str("package", name).Str("baseline", matched).Msg("matched baseline package")
	}
	return ok
}
