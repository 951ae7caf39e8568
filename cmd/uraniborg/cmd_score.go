package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"uraniborg-lab/internal/domain/services/risk"
	"uraniborg-lab/internal/forensics/android"
)

type scoreOptions struct {
	dir        string
	normalize  bool
	includeGMS bool
	csv        bool
	csvHeader  bool
	json       bool
	metrics    []string
	formulas   map[string]string
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Computes the preloaded apps risk score of an observed device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory holding the Hubble observation files")
	cmd.Flags().BoolVar(&opts.normalize, "normalize", false, "normalize against the baseline build")
	cmd.Flags().BoolVar(&opts.includeGMS, "include-gms", false, "include GMS packages in the calculation")
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "print the result as a CSV line and silence logging")
	cmd.Flags().BoolVar(&opts.csvHeader, "csv-header", false, "print a header row before the CSV line")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full assessment as JSON")
	cmd.Flags().StringSliceVar(&opts.metrics, "metrics", nil, "metrics to score (default from config)")
	cmd.Flags().StringToStringVar(&opts.formulas, "formula", nil, "per-metric formula override, e.g. platform=odds-ratio")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runScore(cmd *cobra.Command, root *rootOptions, opts *scoreOptions) error {
	root.quiet = opts.csv || opts.json
	rt, err := root.setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	scoring := rt.cfg.Scoring
	if cmd.Flags().Changed("normalize") {
		scoring.Normalize = opts.normalize
	}
	if cmd.Flags().Changed("include-gms") {
		scoring.IncludeGMS = opts.includeGMS
	}
	if len(opts.metrics) > 0 {
		scoring.Metrics = opts.metrics
	}
	for k, v := range opts.formulas {
		if scoring.Formulas == nil {
			scoring.Formulas = make(map[string]string)
		}
		scoring.Formulas[k] = v
	}
	keys, err := scoring.MetricKeys()
	if err != nil {
		return err
	}
	formulas, err := scoring.FormulaOverrides()
	if err != nil {
		return err
	}

	device, err := android.NewHubbleParser(rt.log).ParseDir(opts.dir)
	if err != nil {
		return fmt.Errorf("failed to parse observation: %w", err)
	}

	store, closeStore, err := rt.baselineStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := rt.whitelists()
	if err != nil {
		return err
	}

	agg := risk.NewAggregator(store, rt.log,
		risk.WithMetrics(keys...),
		risk.WithFormulas(formulas),
		risk.WithWhitelists(registry),
	)
	assessment, err := agg.ComputeScores(ctx, device, scoring.Normalize, scoring.IncludeGMS)
	if err != nil {
		return err
	}

	for _, res := range assessment.Results {
		rt.log.Info().
			Str("metric", string(res.Metric)).
			Float64("score", res.Score).
			Float64("phi", res.Phi).
			Msg("metric score")
	}
	warnSummary(rt.log, assessment)

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	case opts.csv:
		return writeCSV(out, assessment, keys, opts.csvHeader)
	default:
		_, err := fmt.Fprintln(out, summaryLine(assessment))
		return err
	}
}
