package main

import (
	"context"
	"time"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/mp-fx-covid19/src/cmd/fetch_polygon_fx/run"
	"github.com/jiaming2012/mp-fx-covid19/src/datafeed"
	"github.com/jiaming2012/mp-fx-covid19/src/logger"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "fetch_polygon_fx",
	Short: "Downloads 15 minute FX bars from polygon.io",
	Long: `Downloads 15 minute aggregates for each pair, converts them to USD per unit of currency,
stamps each bar at the end of its period and writes them to a CSV file that the study config
can list as a csv source.`,
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

		apiKey, err := utils.GetEnv("POLYGON_API_KEY")
		if err != nil {
			log.Fatalf("error getting polygon api key: %v", err)
		}

		timezone, err := cmd.Flags().GetString("timezone")
		if err != nil {
			log.Fatalf("error getting timezone: %v", err)
		}

		loc, err := time.LoadLocation(timezone)
		if err != nil {
			log.Fatalf("error loading location: %v", err)
		}

		startsAtStr, err := cmd.Flags().GetString("starts-at")
		if err != nil {
			log.Fatalf("error getting starts-at flag: %v", err)
		}

		startsAt, err := time.ParseInLocation("2006-01-02", startsAtStr, loc)
		if err != nil {
			log.Fatalf("error parsing starts-at flag: %v", err)
		}

		endsAtStr, err := cmd.Flags().GetString("ends-at")
		if err != nil {
			log.Fatalf("error getting ends-at flag: %v", err)
		}

		endsAt, err := time.ParseInLocation("2006-01-02", endsAtStr, loc)
		if err != nil {
			log.Fatalf("error parsing ends-at flag: %v", err)
		}

		pairNames, err := cmd.Flags().GetStringSlice("pairs")
		if err != nil {
			log.Fatalf("error getting pairs flag: %v", err)
		}

		var pairs []datafeed.CurrencyPair
		for _, name := range pairNames {
			pair, err := datafeed.ParseCurrencyPair(name)
			if err != nil {
				log.Fatalf("error parsing pair: %v", err)
			}
			pairs = append(pairs, pair)
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			log.Fatalf("error getting out flag: %v", err)
		}

		if err := run.Run(context.Background(), run.RunArgs{
			ApiKey:   apiKey,
			Pairs:    pairs,
			StartsAt: startsAt,
			EndsAt:   endsAt,
			Location: loc,
			OutPath:  outPath,
		}); err != nil {
			log.Fatalf("error running command: %v", err)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringSliceVarP(new([]string), "pairs", "p", nil, "Comma separated pairs with a USD leg, e.g. 'EURUSD,USDJPY'. This flag is required.")
	rootCmd.PersistentFlags().StringVarP(new(string), "starts-at", "s", "", "First day to download, formatted 'YYYY-MM-DD'. This flag is required.")
	rootCmd.PersistentFlags().StringVarP(new(string), "ends-at", "e", "", "Last day to download, formatted 'YYYY-MM-DD'. This flag is required.")
	rootCmd.PersistentFlags().StringVarP(new(string), "timezone", "z", "Europe/Zurich", "Timezone of the dates and of the exported bar times.")
	rootCmd.PersistentFlags().StringVarP(new(string), "out", "o", "data/polygon_fx.csv", "Output CSV path.")
	rootCmd.PersistentFlags().StringVar(new(string), "go-env", "development", "The go environment to run the command in.")

	rootCmd.MarkPersistentFlagRequired("pairs")
	rootCmd.MarkPersistentFlagRequired("starts-at")
	rootCmd.MarkPersistentFlagRequired("ends-at")

	cobra.CheckErr(rootCmd.Execute())
}
