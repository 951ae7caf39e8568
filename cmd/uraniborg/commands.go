package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"uraniborg-lab/internal/config"
	"uraniborg-lab/internal/domain/services/whitelist"
	"uraniborg-lab/internal/infrastructure/baseline"
	"uraniborg-lab/internal/infrastructure/cache"
	"uraniborg-lab/pkg/logger"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	debug      bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "uraniborg",
		Short: "Rates the security risk of an Android build's preloaded apps",
		Long: `uraniborg scores the preloaded applications of an Android device
observed with Hubble against a version-matched AOSP/GSI baseline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(newScoreCmd(opts))
	rootCmd.AddCommand(newBaselineCmd(opts))
	return rootCmd
}

// runtime is the wiring shared by commands
type runtime struct {
	cfg *config.Config
	log *logger.Logger
}

func (o *rootOptions) setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logger.Level
	if o.debug || cfg.App.Debug {
		level = "debug"
	}
	if o.quiet {
		level = "disabled"
	}
	log := logger.New(logger.Config{
		Level:      level,
		Format:     cfg.Logger.Format,
		TimeFormat: "15:04:05",
		Output:     cmd.ErrOrStderr(),
	})
	logger.SetGlobal(log)

	log.Debug().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("baseline_source", cfg.Baseline.Source).
		Msg("configuration loaded")
	return &runtime{cfg: cfg, log: log}, nil
}

// openRedis connects using the redis section of the config
func (r *runtime) openRedis(ctx context.Context) (*cache.RedisCache, error) {
	return cache.NewRedis(ctx, r.cfg.Redis, r.log)
}

// baselineStore builds the store for the configured source. The returned
// closer releases any connection the source holds.
func (r *runtime) baselineStore(ctx context.Context) (*baseline.Store, func(), error) {
	switch r.cfg.Baseline.Source {
	case config.BaselineSourceDir:
		return baseline.NewStore(baseline.DirSource(r.cfg.Baseline.DataDir), r.log), func() {}, nil
	case config.BaselineSourceRedis:
		rc, err := r.openRedis(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize baseline source: %w", err)
		}
		return baseline.NewStore(baseline.NewRedisSource(rc), r.log), func() { rc.Close() }, nil
	default:
		return baseline.NewStore(baseline.EmbeddedSource(), r.log), func() {}, nil
	}
}

// whitelists builds the OEM registry with the optional overlay file applied
func (r *runtime) whitelists() (*whitelist.Registry, error) {
	path := r.cfg.Whitelist.OverlayFile
	if path == "" {
		return whitelist.NewRegistry(nil), nil
	}
	overlays, err := whitelist.LoadOverlayFile(path)
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("file", path).Int("oems", len(overlays)).Msg("whitelist overlay loaded")
	return whitelist.NewRegistry(overlays), nil
}
