package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"uraniborg-lab/internal/forensics/android"
	"uraniborg-lab/internal/infrastructure/baseline"
)

func newBaselineCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage the baseline datasets devices are compared against",
	}
	cmd.AddCommand(newBaselineGenerateCmd(root))
	cmd.AddCommand(newBaselinePublishCmd(root))
	cmd.AddCommand(newBaselineListCmd(root))
	return cmd
}

func newBaselineGenerateCmd(root *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Derives a baseline document from a Hubble observation of a reference build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root.quiet = true
			rt, err := root.setup(cmd)
			if err != nil {
				return err
			}
			device, err := android.NewHubbleParser(rt.log).ParseDir(dir)
			if err != nil {
				return fmt.Errorf("failed to parse observation: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(baseline.Derive(device))
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the Hubble observation files")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func newBaselinePublishCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <dataset> <file>",
		Short: "Validates a baseline document and stores it in Redis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, path := args[0], args[1]
			rt, err := root.setup(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read baseline: %w", err)
			}
			ref, err := baseline.Parse(dataset, data)
			if err != nil {
				return err
			}

			rc, err := rt.openRedis(cmd.Context())
			if err != nil {
				return err
			}
			defer rc.Close()

			if err := rc.PutBaseline(cmd.Context(), dataset, ref.Document()); err != nil {
				return fmt.Errorf("failed to publish baseline: %w", err)
			}
			rt.log.Info().Str("dataset", dataset).Int("packages", ref.PackagesAll().Len()).Msg("baseline published")
			return nil
		},
	}
	return cmd
}

func newBaselineListCmd(root *rootOptions) *cobra.Command {
	var withRedis bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists supported API levels and their datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !withRedis {
				return writeDatasetTable(cmd.OutOrStdout(), nil)
			}

			root.quiet = true
			rt, err := root.setup(cmd)
			if err != nil {
				return err
			}
			rc, err := rt.openRedis(cmd.Context())
			if err != nil {
				return err
			}
			defer rc.Close()

			published := make(map[string]bool)
			for _, level := range baseline.SupportedAPILevels() {
				dataset, _ := baseline.DatasetFor(level)
				ok, err := rc.HasBaseline(cmd.Context(), dataset)
				if err != nil {
					return fmt.Errorf("failed to check baseline %s: %w", dataset, err)
				}
				published[dataset] = ok
			}
			return writeDatasetTable(cmd.OutOrStdout(), published)
		},
	}
	cmd.Flags().BoolVar(&withRedis, "redis", false, "also report which datasets are published in Redis")
	return cmd
}

// writeDatasetTable prints the level to dataset mapping. A non-nil published
// map adds a column telling whether the dataset is in Redis.
func writeDatasetTable(w io.Writer, published map[string]bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if published == nil {
		fmt.Fprintln(tw, "API LEVEL\tDATASET")
	} else {
		fmt.Fprintln(tw, "API LEVEL\tDATASET\tPUBLISHED")
	}
	for _, level := range baseline.SupportedAPILevels() {
		dataset, _ := baseline.DatasetFor(level)
		if published == nil {
			fmt.Fprintf(tw, "%d\t%s\n", level, dataset)
			continue
		}
		state := "no"
		if published[dataset] {
			state = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", level, dataset, state)
	}
	return tw.Flush()
}
