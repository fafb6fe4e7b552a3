package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"firmware-manager/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "firmware-manager",
	Short: "Track firmware devices and drive their updates",
	Long: `firmware-manager keeps the list of firmware devices reported by the update
worker, walks each one through changelog review, confirmation, flashing and
reboot, and serves that state over HTTP.`,
	SilenceUsage: true,
}

var rootConfig string

func init() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "YAML config file (default from FWM_CONFIG_FILE)")
	rootCmd.AddCommand(
		newServeCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	if _, err := config.LoadDotEnv("."); err != nil {
		log.Warn().Err(err).Msg("Ignoring .env")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("firmware-manager command failed")
	}
}

func loadConfig() (config.Config, error) {
	path := rootConfig
	if path == "" {
		path = os.Getenv("FWM_CONFIG_FILE")
	}
	return config.Load(path)
}
