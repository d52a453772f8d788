package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/datasource"
	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ecoti",
		Short: "EcoTI sustainability metrics for IT infrastructure",
		Long: `Estimate the energy draw, CO2 emissions, savings potential and tree
equivalent of a corporate IT estate, and serve them as a live dashboard API.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (ECO_* env vars override it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMetricsCmd())
	rootCmd.AddCommand(newTrendsCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newSavingsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newHistoryCmd())

	err := rootCmd.Execute()
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	initLogging(verbose)

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	klog.V(2).InfoS("Configuration loaded",
		"environment", cfg.Environment,
		"dataSource", cfg.DataSource,
		"stateFeeder", cfg.StateFeeder,
		"emissionFactor", cfg.Infrastructure.EmissionFactor)
	return nil
}

// initLogging keeps klog's flags off the command line so -v stays a boolean
func initLogging(verbose bool) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	level := 0
	if verbose {
		level = 4
	}
	fs.Set("v", strconv.Itoa(level))
}

func newEngine(opts ...engine.Option) (*engine.Engine, error) {
	policy, err := engine.ParseStatePolicy(cfg.StatePolicy)
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithStatePolicy(policy)}, opts...)

	eng, err := engine.New(cfg.Infrastructure, cfg.InitialState, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics engine: %w", err)
	}
	return eng, nil
}

func newSource(eng *engine.Engine) (datasource.Source, error) {
	src, err := datasource.New(cfg, eng)
	if err != nil {
		return nil, err
	}
	klog.V(2).InfoS("Using metrics source", "source", src.Name())
	return src, nil
}

// clockAtHour pins the hour of day while keeping today's date
func clockAtHour(hour int) func() time.Time {
	return func() time.Time {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	}
}
