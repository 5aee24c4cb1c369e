package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/brettbedarf/stagefs/adapters"
	"github.com/brettbedarf/stagefs/config"
	"github.com/brettbedarf/stagefs/internal/util"
	"github.com/brettbedarf/stagefs/requests"
	"github.com/brettbedarf/stagefs/workspace"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		planPath   string
		verbose    int
		noSave     bool
	)
	flagSet := pflag.NewFlagSet("stagefs", pflag.ExitOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "Path to a yaml or json config file")
	flagSet.StringVarP(&planPath, "plan", "p", "", "Path to a yaml or json plan file")
	flagSet.IntVarP(&verbose, "verbose", "v", config.InfoVerbose,
		"Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flagSet.BoolVar(&noSave, "no-save", false, "Leave queued operations unsaved after the last step (dry run)")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stagefs [flags] [root]\n\n")
		fmt.Fprintf(os.Stderr, "Applies a plan of staged file system steps. With a root the plan runs\n")
		fmt.Fprintf(os.Stderr, "against that host directory, otherwise against the configured store.\n\n")
		flagSet.PrintDefaults()
	}
	_ = flagSet.Parse(os.Args[1:])

	// Load config, then let explicit flags win
	cfg := config.NewDefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(configPath); err != nil {
			util.InitializeLogger(config.VerboseToLogLevel(verbose))
			logger := util.GetLogger("main")
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	}
	override := &config.ConfigOverride{}
	if flagSet.Changed("verbose") || configPath == "" {
		override.LogLvl = &verbose
	}
	if root := flagSet.Arg(0); root != "" {
		storeType := adapters.DiskStoreType
		override.StoreType = &storeType
		override.StoreRoot = &root
	}
	cfg.Merge(override)

	// Initialize logger
	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")
	logger.Info().
		Str("store", cfg.Store.Type).
		Str("root", cfg.Store.Root).
		Str("plan", planPath).
		Bool("noSave", noSave).
		Msg("stagefs initializing")

	if planPath == "" {
		logger.Fatal().Msg("No plan file specified; pass one with --plan")
	}
	steps, err := requests.LoadPlanFile(planPath)
	if err != nil {
		logger.Fatal().Err(err).Str("plan", planPath).Msg("Failed to load plan file")
	}
	logger.Debug().Int("steps", len(steps)).Msg("Plan file loaded successfully")

	// Register all built-in stores
	registry := adapters.NewRegistry()
	adapters.RegisterBuiltins(registry)

	ws, err := workspace.New(cfg, registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create workspace")
	}

	// Cancel between steps on termination signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	summary, err := ws.Apply(ctx, steps, workspace.ApplyOptions{NoSave: noSave})
	if err != nil {
		logger.Error().Err(err).Int("applied", summary.Steps).Int("steps", len(steps)).Msg("Plan failed")
		stop()
		os.Exit(1)
	}
	logger.Info().
		Int("steps", summary.Steps).
		Bool("saved", summary.Saved).
		Dur("took", summary.Elapsed).
		Msg("Plan applied successfully")
}
