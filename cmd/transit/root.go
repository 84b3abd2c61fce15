package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orbitalml/transit/artifact"
	"github.com/orbitalml/transit/cfg"
	translog "github.com/orbitalml/transit/pkg/log"
)

// app carries the state shared by all subcommands, resolved once in the
// root's PersistentPreRunE.
type app struct {
	configPath   string
	artifactsDir string
	logLevel     string
	jsonLogs     bool

	settings cfg.Settings
	logger   zerolog.Logger
	store    *artifact.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "transit",
		Short:         "Exoplanet transit-signal disposition classifier",
		Long:          "Classifies Kepler and TESS transit-signal candidates with the trained gradient-boosted ensemble.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cfg.Load(a.configPath)
			if err != nil {
				return err
			}
			// Flags beat both file and environment.
			if a.artifactsDir != "" {
				settings.ArtifactsDir = a.artifactsDir
			}
			if a.logLevel != "" {
				settings.LogLevel = a.logLevel
			}
			a.settings = settings

			if a.jsonLogs {
				a.logger = translog.New(cmd.ErrOrStderr(), settings.LogLevel)
			} else {
				a.logger = translog.NewConsole(settings.LogLevel)
			}
			a.store = artifact.NewStore(settings.ArtifactsDir, a.logger)

			if vs := settings.PreloadVariants(); len(vs) > 0 {
				if err := a.store.Preload(vs...); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&a.artifactsDir, "artifacts", "", "artifact base directory (overrides config)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "emit JSON log records instead of console output")

	cmd.AddCommand(newPredictCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	return cmd
}
