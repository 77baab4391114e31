// Command contours plots precomputed density scores and Gaussian-mixture
// parameters as contour figures.
//
// Example:
//
//	contours --scored-grid target/scores/3gaussians-7k-grid.json \
//	    --plot difference --savefig
//
// --savefig with no value names the figure after the grid file and writes it
// under --plots-dir; --savefig=PATH or --savefig PATH picks the file. Without
// --savefig the figure is opened in the platform image viewer.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/contours/config"
	"github.com/Noofbiz/contours/gaussian"
	"github.com/Noofbiz/contours/logger"
	"github.com/Noofbiz/contours/render"
)

// All linker flags will be set at build time.
var version = "dev"

func main() {
	logger.Init(config.DefaultLogLevel, os.Stderr)
	if err := logger.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Error().Err(err).Msg("contours failed")
		os.Exit(1)
	}
}

// newRootCmd builds the command with its own viper instance so that flag,
// environment and config-file state never leaks between invocations.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	input := &config.RawInput{}

	var (
		configFile           string
		printEffectiveConfig bool
	)

	cmd := &cobra.Command{
		Use:           "contours",
		Short:         "Plot score contours and Gaussian-mixture overlays.",
		Long:          `contours renders a scored grid dump as contour plots, optionally against the Gaussian mixture that produced it.`,
		Version:       version,
		Args:          savefigArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := initConfig(v, configFile); err != nil {
				return err
			}
			logger.Init(v.GetString("log-level"), stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("savefig", args[0]); err != nil {
					return err
				}
			}
			if err := v.Unmarshal(input); err != nil {
				return fmt.Errorf("failed to decode configuration: %w", err)
			}
			if printEffectiveConfig {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(input)
			}

			cfg, err := config.Validate(input)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cfg, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default is .contours.yaml in . or $HOME)")
	flags.BoolVar(&printEffectiveConfig, "print-effective-config", false, "print the merged configuration as JSON and exit")

	flags.String("test-class", config.DefaultTestClass, "test class used to locate fallback mixture parameters")
	flags.String("test-method", config.DefaultTestMethod, "test method used to locate fallback mixture parameters")
	flags.String("scores-dir", config.DefaultScoresDir, "directory holding <class>-<method>-{means,covariances,weights}.json")
	flags.String("scored-grid", config.DefaultScoredGrid, "scored grid JSON dump")
	flags.String("score-cap", "", "clip scores to at most this value")
	flags.String("plot", string(render.DensityMode), "contour mode: "+render.ModeNames())

	flags.StringSlice("hist2d", nil, "two CSV column names for a 2D histogram overlay, as x,y or --hist2d x --hist2d y (names containing commas are not supported)")
	flags.Int("histogram-bins", config.DefaultHistogramBins, "histogram bins per axis")
	flags.String("csv", "", "CSV file with the histogram columns")

	flags.String("centers", "", "component means to draw (JSON dump)")
	flags.String("weights", "", "component weights to draw (JSON list)")
	flags.String("covariances", "", "component covariances to draw as ellipses (JSON dump)")
	flags.Float64("confidence-scale", gaussian.DefaultConfidenceScale, "standard deviations per ellipse semi-axis")

	flags.String("savefig", "", "save the figure instead of showing it; with no value the name is inferred from --scored-grid")
	flags.Lookup("savefig").NoOptDefVal = render.InferSavefig
	flags.String("plots-dir", render.DefaultPlotsDir, "directory for inferred figure names")
	flags.Int("dpi", render.DefaultDPI, "resolution of the saved PNG")
	flags.Int("levels", render.DefaultLevels, "number of contour levels")
	flags.String("xmin", "", "lower x axis limit")
	flags.String("xmax", "", "upper x axis limit")
	flags.String("ymin", "", "lower y axis limit")
	flags.String("ymax", "", "upper y axis limit")
	flags.Bool("allow-degraded", false, "draw without contours instead of failing when the mixture is unavailable")
	flags.String("export-parquet", "", "also write the evaluated surface to this Parquet file")
	flags.String("log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("binding flags: %v", err))
	}
	return cmd
}

// savefigArgs allows a single positional argument only as the value of a
// bare --savefig, since pflag cannot attach an optional value given after a
// space.
func savefigArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	f := cmd.Flags().Lookup("savefig")
	if len(args) == 1 && f.Changed && f.Value.String() == render.InferSavefig {
		return nil
	}
	return fmt.Errorf("unexpected arguments %q: give the output file as --savefig=PATH", args)
}

// initConfig reads the config file, when there is one, and environment
// variables prefixed with CONTOURS_.
func initConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".contours")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("CONTOURS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
