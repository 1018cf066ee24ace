package main

import (
	"context"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/mp-fx-covid19/src/cmd/serve/run"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/logger"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves rate cut event studies over HTTP",
	Long: `Loads the data named in the study config once and serves:
  GET /events          rate cuts as JSON
  GET /events/table    rate cuts as an HTML table
  GET /availability    data availability per currency
  GET /eventstudy      mean return path and bootstrap bands
  GET /eventstudy/progress  websocket stream of bootstrap progress
  GET /runs            stored bootstrap runs (needs DATABASE_URL)
  GET /runs/{runId}    a stored run with its bands`,
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

		ctx := context.Background()
		shutdown, err := utils.SetupTelemetry(ctx, "eventstudy-api")
		if err != nil {
			log.Fatalf("error setting up telemetry: %v", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Errorf("error shutting down telemetry: %v", err)
			}
		}()

		if err := run.Run(run.RunArgs{
			Config:      cfg,
			Port:        utils.GetEnvOrDefault("PORT", "8080"),
			DatabaseURL: utils.GetEnvOrDefault("DATABASE_URL", ""),
		}); err != nil {
			log.Fatalf("error running command: %v", err)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(new(string), "config", "c", "", "Path to the study config YAML. This flag is required.")
	rootCmd.PersistentFlags().StringVar(new(string), "go-env", "development", "The go environment to run the command in.")

	rootCmd.MarkPersistentFlagRequired("config")

	cobra.CheckErr(rootCmd.Execute())
}
