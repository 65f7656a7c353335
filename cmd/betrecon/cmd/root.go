package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wager-reconciliation-service/cmd/betrecon/config"
	"wager-reconciliation-service/internal/sports"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/internal/store/gormstore"
	"wager-reconciliation-service/internal/store/memstore"
	"wager-reconciliation-service/internal/validation"
	"wager-reconciliation-service/pkg/logger"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
	version    = "dev"
	commit     = "unknown"
	date       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "betrecon",
	Short: "Wager spreadsheet reconciliation tool",
	Long: `Betrecon ingests spreadsheets of historical wagers, reconciles each row
against authoritative game results, and moves verified rows into the system
of record as immutable bet entries.

Examples:
  betrecon ingest wagers.xlsx
  betrecon summary 4f1c...-batch-id
  betrecon correct 4f1c...-batch-id --rows r1,r2
  betrecon import 4f1c...-batch-id
  betrecon rollback 4f1c...-batch-id`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of text")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver (postgres, sqlite, memory)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string or file path")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().String("games-file", "", "JSON fixture of game results for offline runs")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("db.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	viper.BindPFlag("db.dsn", rootCmd.PersistentFlags().Lookup("db-dsn"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("games_file", rootCmd.PersistentFlags().Lookup("games-file"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("BETRECON")
	viper.AutomaticEnv()
}

// env bundles everything a subcommand needs to run.
type env struct {
	cfg      *config.Config
	log      logger.Logger
	store    store.Store
	registry *sports.Registry
	resolver sports.TeamResolver
	provider sports.ResultsProvider
}

// buildEnv assembles configuration, logging, storage, and the sports
// collaborators for one command invocation.
func buildEnv() (*env, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:  logger.Level(level),
		Format: logger.Format(cfg.LogFormat),
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	logger.SetGlobal(log)

	var st store.Store
	if cfg.DBDriver == "memory" {
		st = memstore.New()
	} else {
		st, err = gormstore.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
	}

	var resolver sports.TeamResolver = sports.PassthroughResolver{}
	if len(cfg.Teams) > 0 {
		resolver = sports.NewStaticResolver(cfg.Teams, cfg.TeamAliases)
	}

	games, err := config.LoadGames(cfg.GamesFile)
	if err != nil {
		return nil, err
	}
	provider := sports.NewStaticProvider(games)

	return &env{
		cfg:      cfg,
		log:      log,
		store:    st,
		registry: sports.DefaultRegistry(),
		resolver: resolver,
		provider: provider,
	}, nil
}

func (e *env) orchestrator() *validation.Orchestrator {
	return validation.NewOrchestrator(e.store, e.resolver, e.provider, e.registry, validation.Config{
		TeamConfidenceThreshold: e.cfg.TeamConfidenceThreshold,
		OddsDriftPoints:         e.cfg.OddsDriftPoints,
	}, e.log)
}

func getVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}
