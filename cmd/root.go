package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wcwagner/wwdc-dl/pkg/config"
)

var rootFlags struct {
	year      int
	directory string
	verbose   bool
}

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "wwdc-dl",
	Short: "Download, list, export, and summarize WWDC session content.",
}

func rootPersistentPreRunE(cmd *cobra.Command, args []string) error {
	// A local .env may carry the Gemini API key.
	_ = godotenv.Load()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if rootFlags.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if !rootCmd.PersistentFlags().Changed("directory") && cfg.OutputDir != "" {
		rootFlags.directory = cfg.OutputDir
	}
	return nil
}

// Execute runs the CLI.
func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = rootPersistentPreRunE
	rootCmd.PersistentFlags().IntVarP(&rootFlags.year, "year", "y", time.Now().Year(), "WWDC year")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.directory, "directory", "d", "./wwdc-content", "Output directory")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable verbose output")
}

func yearString() string {
	return strconv.Itoa(rootFlags.year)
}
