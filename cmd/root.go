package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/persist"
	"github.com/huangsam/enrollcast/schema"
)

// Set by goreleaser through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCtx = context.Background()

// cfg is the validated configuration shared by every command.
var cfg = &contract.Config{}

// input collects flags, env and config file values before validation.
var input = &contract.ConfigRawInput{}

var profile = &contract.ProfileConfig{}

// storeManager is installed by main through SetStoreManager.
var storeManager contract.StoreManager

// startProfiling begins a CPU profile at <prefix>.cpu.prof. The heap profile
// is written when profiling stops.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}
	cpuPath := profile.Prefix + ".cpu.prof"
	cpuFile, err := os.Create(cpuPath)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", cpuPath, err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		_ = cpuFile.Close()
		return fmt.Errorf("cannot start CPU profile: %w", err)
	}
	// stderr keeps stdout clean for csv and json output
	_, err = fmt.Fprintf(os.Stderr, "Profiling to %s and %s.mem.prof\n", cpuPath, profile.Prefix)
	return err
}

func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}
	pprof.StopCPUProfile()

	memPath := profile.Prefix + ".mem.prof"
	memFile, err := os.Create(memPath)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", memPath, err)
	}
	defer func() { _ = memFile.Close() }()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("cannot write heap profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiles written. Inspect with 'go tool pprof %s.cpu.prof'.\n", profile.Prefix)
	return err
}

var rootCmd = &cobra.Command{
	Use:                "enrollcast",
	Short:              "Forecast annual program enrollment from historical counts.",
	Long:               `Enrollcast fits a bounded logistic trend per program and projects enrollment with prediction intervals.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigSearch points viper at the explicit config file or the default search paths.
func setConfigSearch() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".enrollcast")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig wires env lookup and defaults. It runs before any PreRunE.
func initConfig() {
	setConfigSearch()

	viper.SetEnvPrefix("ENROLLCAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("target-year", contract.DefaultTargetYear)
	viper.SetDefault("current-year", 0)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("interval-width", contract.DefaultIntervalWidth)
	viper.SetDefault("changepoint-prior-scale", contract.DefaultChangepointPriorScale)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("color", "yes")
	viper.SetDefault("emoji", "no")
}

// readConfigFile merges the config file when one is found. A missing file is not an error.
func readConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("cannot read config file: %w", err)
		}
	}
	return nil
}

// sharedSetup resolves and validates the configuration for commands that
// forecast, then opens the store.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	profilePrefix := viper.GetString("profile")
	if err := contract.ProcessProfilingConfig(profile, profilePrefix); err != nil {
		return fmt.Errorf("invalid profile setting: %w", err)
	}
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return err
		}
	}

	if err := readConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("cannot decode configuration: %w", err)
	}

	// Positional input wins over --input
	input.InputPathStr = ""
	if len(args) == 1 {
		input.InputPathStr = args[0]
	}

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	if err := persist.InitStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	return nil
}

// sharedSetupWrapper adapts sharedSetup to cobra's PreRunE signature.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file for commands that skip sharedSetup.
func loadConfigFile() error {
	setConfigSearch()
	return readConfigFile()
}

// Execute runs the command selected by os.Args.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager installs the store holder used by forecast and store commands.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}

// StopProfiling flushes the profiles started by --profile.
func StopProfiling() error {
	return stopProfiling()
}
