package main

import (
	"context"
	"os"
	_ "time/tzdata"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jiaming2012/mp-fx-covid19/src/cmd/eventstudy/run"
	"github.com/jiaming2012/mp-fx-covid19/src/dbutils"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/logger"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "eventstudy",
	Short: "Measures the FX response to central bank rate cuts",
	Long: `Loads the intraday FX quotes and the rate cut announcements named in the study config,
computes the event-weighted mean return path around the announcements and tests it against
a block bootstrap of the data with the event windows removed.

The pivot and the bootstrap bands are written to <outDir>/pivot-<run>.csv and <outDir>/bands-<run>.csv.
When DATABASE_URL is set the bootstrap run is also stored in postgres.`,
	Run: func(cmd *cobra.Command, args []string) {
		closer := logger.Setup()
		defer closer.Close()

		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		projectsDir := utils.GetEnvOrDefault("PROJECTS_DIR", ".")
		if err := utils.InitEnvironmentVariables(projectsDir, goEnv); err != nil {
			log.Fatalf("error initializing environment variables: %v", err)
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config flag: %v", err)
		}

		cfg, err := eventmodels.LoadStudyConfig(configPath)
		if err != nil {
			log.Fatalf("error loading config: %v", err)
		}

		if err := applyFlags(cmd, cfg); err != nil {
			log.Fatalf("error applying flags: %v", err)
		}

		skipBootstrap, err := cmd.Flags().GetBool("skip-bootstrap")
		if err != nil {
			log.Fatalf("error getting skip-bootstrap flag: %v", err)
		}

		ctx := context.Background()
		shutdown, err := utils.SetupTelemetry(ctx, "eventstudy")
		if err != nil {
			log.Fatalf("error setting up telemetry: %v", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Errorf("error shutting down telemetry: %v", err)
			}
		}()

		var db *gorm.DB
		if url := utils.GetEnvOrDefault("DATABASE_URL", ""); url != "" {
			if db, err = dbutils.InitPostgresWithUrl(url); err != nil {
				log.Fatalf("error connecting to database: %v", err)
			}
		}

		if err := run.Run(ctx, run.RunArgs{
			Config:        cfg,
			RunID:         uuid.New(),
			SkipBootstrap: skipBootstrap,
			DB:            db,
			Out:           os.Stdout,
		}); err != nil {
			log.Fatalf("error running command: %v", err)
		}
	},
}

// applyFlags overrides the config with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *eventmodels.StudyConfigYAML) error {
	flags := cmd.Flags()

	if flags.Changed("window") {
		s, err := flags.GetString("window")
		if err != nil {
			return err
		}

		if cfg.Window, err = eventmodels.ParseWindow(s); err != nil {
			return err
		}
	}

	if flags.Changed("event-date-index") {
		edi, err := flags.GetInt("event-date-index")
		if err != nil {
			return err
		}
		cfg.EventDateIndex = edi
	}

	if flags.Changed("currencies") {
		s, err := flags.GetString("currencies")
		if err != nil {
			return err
		}
		cfg.Currencies = utils.ParseCurrencies(s)
	}

	if flags.Changed("replications") {
		n, err := flags.GetInt("replications")
		if err != nil {
			return err
		}
		cfg.Bootstrap.Replications = n
	}

	if flags.Changed("seed") {
		seed, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Bootstrap.Seed = seed
	}

	if flags.Changed("workers") {
		n, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Bootstrap.Workers = n
	}

	if flags.Changed("cumulative") {
		c, err := flags.GetBool("cumulative")
		if err != nil {
			return err
		}
		cfg.Cumulative = c
	}

	if flags.Changed("out-dir") {
		dir, err := flags.GetString("out-dir")
		if err != nil {
			return err
		}
		cfg.OutDir = dir
	}

	return cfg.Validate()
}

func main() {
	rootCmd.PersistentFlags().StringVarP(new(string), "config", "c", "", "Path to the study config YAML. This flag is required.")
	rootCmd.PersistentFlags().StringVar(new(string), "go-env", "development", "The go environment to run the command in.")
	rootCmd.PersistentFlags().StringVarP(new(string), "window", "w", "", "Event window as 'start,end' relative to the event bar, e.g. '-4,8'.")
	rootCmd.PersistentFlags().IntVar(new(int), "event-date-index", 1, "Whether the bar containing the announcement is period 0 (0) or period 1 (1).")
	rootCmd.PersistentFlags().StringVar(new(string), "currencies", "", "Comma separated currencies to include, e.g. 'eur,gbp'. Defaults to all.")
	rootCmd.PersistentFlags().IntVarP(new(int), "replications", "n", 500, "Number of bootstrap replications.")
	rootCmd.PersistentFlags().Int64Var(new(int64), "seed", 1, "Seed of the first bootstrap replication.")
	rootCmd.PersistentFlags().IntVar(new(int), "workers", 4, "Number of replications run in parallel.")
	rootCmd.PersistentFlags().BoolVar(new(bool), "cumulative", true, "Use cumulative returns rebased at the bar before the event.")
	rootCmd.PersistentFlags().StringVarP(new(string), "out-dir", "o", "", "Directory for the exported CSV files.")
	rootCmd.PersistentFlags().Bool("skip-bootstrap", false, "Only compute the observed mean path.")

	rootCmd.MarkPersistentFlagRequired("config")

	cobra.CheckErr(rootCmd.Execute())
}
