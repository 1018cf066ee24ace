package main

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/mp-fx-covid19/src/cmd/describe_events/run"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/logger"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "describe_events",
	Short: "Prints the rate cut announcements per currency",
	Long: `Prints one row per announcement time and one column per currency with the size of each cut
in basis points, followed by the number of cuts and the total cut per currency.

With --config the availability of the configured FX data is printed as well.`,
	Run: func(cmd *cobra.Command, args []string) {
		closer := logger.Setup()
		defer closer.Close()

		eventsPath, err := cmd.Flags().GetString("events")
		if err != nil {
			log.Fatalf("error getting events flag: %v", err)
		}

		timezone, err := cmd.Flags().GetString("timezone")
		if err != nil {
			log.Fatalf("error getting timezone: %v", err)
		}

		loc, err := time.LoadLocation(timezone)
		if err != nil {
			log.Fatalf("error loading location: %v", err)
		}

		currencies, err := cmd.Flags().GetString("currencies")
		if err != nil {
			log.Fatalf("error getting currencies flag: %v", err)
		}

		html, err := cmd.Flags().GetBool("html")
		if err != nil {
			log.Fatalf("error getting html flag: %v", err)
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config flag: %v", err)
		}

		var cfg *eventmodels.StudyConfigYAML
		if configPath != "" {
			if cfg, err = eventmodels.LoadStudyConfig(configPath); err != nil {
				log.Fatalf("error loading config: %v", err)
			}

			if eventsPath == "" {
				eventsPath = cfg.ResolvePath(cfg.EventsPath)
			}
		}

		if eventsPath == "" {
			log.Fatalf("either --events or --config is required")
		}

		if err := run.Run(context.Background(), run.RunArgs{
			EventsPath: eventsPath,
			Location:   loc,
			Currencies: utils.ParseCurrencies(currencies),
			HTML:       html,
			Config:     cfg,
			Out:        os.Stdout,
		}); err != nil {
			log.Fatalf("error running command: %v", err)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(new(string), "events", "e", "", "Path to the policy measures workbook or CSV.")
	rootCmd.PersistentFlags().StringVarP(new(string), "config", "c", "", "Path to a study config YAML.")
	rootCmd.PersistentFlags().StringVarP(new(string), "timezone", "z", "Europe/Zurich", "Timezone the announcement times are recorded in.")
	rootCmd.PersistentFlags().StringVar(new(string), "currencies", "", "Comma separated currencies to include. Defaults to all.")
	rootCmd.PersistentFlags().Bool("html", false, "Print the table as HTML.")

	cobra.CheckErr(rootCmd.Execute())
}
