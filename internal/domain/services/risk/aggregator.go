package risk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/internal/domain/services/whitelist"
	"uraniborg-lab/internal/infrastructure/baseline"
	"uraniborg-lab/internal/metrics"
	"uraniborg-lab/pkg/logger"
)

// ReferenceProvider defines the interface for baseline lookups
type ReferenceProvider interface {
	// Get returns the baseline reference of an API level
	Get(ctx context.Context, apiLevel int) (*baseline.Reference, error)
}

// Aggregator computes the device score from the enabled metrics
type Aggregator struct {
	refs       ReferenceProvider
	whitelists *whitelist.Registry
	metricKeys []models.MetricKey
	formulas   map[models.MetricKey]models.Formula
	onMismatch MismatchHandler
	logger     *logger.Logger
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithMetrics sets the metric subset that makes up the total
func WithMetrics(keys ...models.MetricKey) AggregatorOption {
	return func(g *Aggregator) { g.metricKeys = slices.Clone(keys) }
}

// WithFormulas overrides the formula of individual metrics
func WithFormulas(formulas map[models.MetricKey]models.Formula) AggregatorOption {
	return func(g *Aggregator) {
		for k, f := range formulas {
			g.formulas[k] = f
		}
	}
}

// WithWhitelists replaces the built-in OEM policy registry
func WithWhitelists(r *whitelist.Registry) AggregatorOption {
	return func(g *Aggregator) { g.whitelists = r }
}

// WithAggregatorMismatchHandler forwards policy mismatches from every analyzer
func WithAggregatorMismatchHandler(h MismatchHandler) AggregatorOption {
	return func(g *Aggregator) { g.onMismatch = h }
}

// NewAggregator creates an aggregator over the default metrics
func NewAggregator(refs ReferenceProvider, log *logger.Logger, opts ...AggregatorOption) *Aggregator {
	g := &Aggregator{
		refs:       refs,
		whitelists: whitelist.NewRegistry(nil),
		metricKeys: slices.Clone(models.DefaultMetrics),
		formulas:   make(map[models.MetricKey]models.Formula),
		logger:     log.WithComponent("aggregator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Metrics returns the enabled metric keys
func (g *Aggregator) Metrics() []models.MetricKey {
	return slices.Clone(g.metricKeys)
}

// ComputeScores scores a device. Metrics without a scorer are reported in
// Assessment.Unavailable and do not contribute to the total; a missing
// baseline or parameter set fails the whole assessment.
func (g *Aggregator) ComputeScores(ctx context.Context, device *models.DeviceRecord, normalize, includeGMS bool) (*models.Assessment, error) {
	apiLevel := device.APILevel()
	log := g.logger.WithDevice(device.Build.Fingerprint)

	ref, err := g.refs.Get(ctx, apiLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline: %w", err)
	}
	policy := g.whitelists.Get(device.OEM())
	target := NewTarget(device, ref, policy)

	log.Info().
		Int("api_level", apiLevel).
		Str("oem", device.OEM()).
		Str("whitelist", policy.Name()).
		Str("baseline", ref.Dataset()).
		Int("packages", len(device.Packages)).
		Int("platform_apps", target.Platform.Apps.Len()).
		Msg("scoring device")

	assessment := &models.Assessment{
		ID:         uuid.New(),
		Build:      device.Build,
		Hardware:   device.Hardware,
		Normalized: normalize,
		IncludeGMS: includeGMS,
		Scores:     make(map[models.MetricKey]float64, len(g.metricKeys)),
	}

	for _, key := range g.metricKeys {
		opts := []Option{WithGMSDiscount(!includeGMS)}
		if f, ok := g.formulas[key]; ok {
			opts = append(opts, WithFormula(f))
		}
		if g.onMismatch != nil {
			opts = append(opts, WithMismatchHandler(g.onMismatch))
		}

		analyzer, err := GetScorer(key, apiLevel, log, opts...)
		if errors.Is(err, models.ErrScorerUnavailable) {
			log.Warn().Str("metric", string(key)).Msg("metric has no scorer, leaving it out of the total")
			assessment.Unavailable = append(assessment.Unavailable, models.UnavailableMetric{Metric: key, Reason: err.Error()})
			metrics.UnavailableMetrics.WithLabelValues(string(key)).Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get scorer: %w", err)
		}

		res := analyzer.Evaluate(target, normalize)
		assessment.Scores[key] = res.Score
		assessment.Results = append(assessment.Results, res)
		assessment.Total += res.Score
		metrics.MetricScore.WithLabelValues(string(key)).Observe(res.Score)
	}

	assessment.Rating = models.Interpret(assessment.Total)
	assessment.ComputedAt = time.Now().UTC()
	metrics.Assessments.WithLabelValues(string(assessment.Rating)).Inc()

	log.Info().
		Str("assessment_id", assessment.ID.String()).
		Float64("total", assessment.Total).
		Str("rating", string(assessment.Rating)).
		Msg("device scored")
	return assessment, nil
}
