package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"variantd/internal/config"
	"variantd/internal/variant"
)

// newRootCmd constructs the variantd command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "variantd",
		Short:         "Live source registry and transcoded variant orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newPresetsCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control API and transcoder supervisor",
		Example: "  variantd serve --config variantd.yaml\n" +
			"  variantd serve --addr :9090 --ffmpeg-bin /usr/local/bin/ffmpeg",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, os.Getenv)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, serveDeps{
				Logger:     log,
				Registerer: prometheus.DefaultRegisterer,
			})
		},
	}
	f := cmd.Flags()
	f.String("config", "", "Config file (.yaml, .yml, .json, .toml); defaults to VARIANTD_CONFIG")
	f.StringSlice("env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	f.String("addr", "", "HTTP listen address, e.g. :8080")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: json|console")
	f.String("app", "", "Ingest application name sources publish under")
	f.String("rtmp-base", "", "RTMP root of the ingest engine, e.g. rtmp://127.0.0.1:1935")
	f.String("playback-base", "", "HTTP-FLV root variants are played from")
	f.String("public-host", "", "Host advertised to publishers in /server-info")
	f.String("ffmpeg-bin", "", "Transcoder executable")
	f.Bool("cascade-stop", false, "Stop a source's variants when it stops publishing")
	f.Bool("cors", false, "Enable CORS for the control API")
	f.String("redis-addr", "", "Publish lifecycle events to this Redis server")
	return cmd
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(cmd *cobra.Command, getenv func(string) string) (config.Config, error) {
	f := cmd.Flags()
	envFiles, _ := f.GetStringSlice("env-file")
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return config.Config{}, fmt.Errorf("env file: %w", err)
	}

	cfg := config.Default()
	path, _ := f.GetString("config")
	if path == "" {
		path = getenv(config.EnvPrefix + "CONFIG")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("addr", &cfg.Addr)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("app", &cfg.Ingest.App)
	str("rtmp-base", &cfg.Ingest.RTMPBase)
	str("playback-base", &cfg.Ingest.PlaybackBase)
	str("public-host", &cfg.Ingest.PublicHost)
	str("ffmpeg-bin", &cfg.Transcoder.Bin)
	str("redis-addr", &cfg.Redis.Addr)
	if f.Changed("cascade-stop") {
		cfg.Ingest.CascadeStopOnUnpublish, _ = f.GetBool("cascade-stop")
	}
	if f.Changed("cors") {
		cfg.CORS.Enabled, _ = f.GetBool("cors")
	}
	cfg.Ingest.RTMPBase = strings.TrimRight(cfg.Ingest.RTMPBase, "/")
	cfg.Ingest.PlaybackBase = strings.TrimRight(cfg.Ingest.PlaybackBase, "/")

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newPresetsCmd() *cobra.Command {
	var asJSON bool
	var tierFlag string
	cmd := &cobra.Command{
		Use:     "presets",
		Short:   "List the built-in encoding presets",
		Example: "  variantd presets\n  variantd presets --tier low --json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers := variant.Tiers()
			if cmd.Flags().Changed("tier") {
				t, err := variant.ParseTier(tierFlag)
				if err != nil {
					return err
				}
				tiers = []variant.Tier{t}
			}
			return writePresets(cmd.OutOrStdout(), variant.DefaultCatalog(), tiers, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print presets as JSON")
	cmd.Flags().StringVar(&tierFlag, "tier", "", "Only list this tier: standard|low|ultra|extreme")
	return cmd
}

type presetRow struct {
	Tier       variant.Tier       `json:"tier"`
	Resolution string             `json:"resolution"`
	Preset     variant.PresetSpec `json:"preset"`
}

func writePresets(w io.Writer, cat *variant.Catalog, tiers []variant.Tier, asJSON bool) error {
	var rows []presetRow
	for _, tier := range tiers {
		for _, res := range cat.Resolutions(tier) {
			spec, err := cat.Lookup(res, tier)
			if err != nil {
				return err
			}
			rows = append(rows, presetRow{Tier: tier, Resolution: res, Preset: spec})
		}
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tRESOLUTION\tSIZE\tFPS\tVIDEO\tAUDIO\tSPEED\tGOP")
	for _, r := range rows {
		p := r.Preset
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%dk\t%dk\t%s\t%d\n",
			r.Tier, r.Resolution, p.Width, p.Height, p.FPS, p.BitrateKbps, p.AudioBitrateKbps, p.SpeedPreset, p.GOP)
	}
	return tw.Flush()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "variantd", version)
		},
	}
}
