/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/muninn/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "muninn",
	Short: "Muninn - Log Ingestion Toolkit",
	Long: `Muninn parses plain-text and archived log files into structured
records through a pooled streaming pipeline, with severity filtering,
parse-session history and an HTTP status API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")

		service := config.NewService(configPath)

		// A missing config file is not an error; commands run on
		// defaults until 'muninn init' writes one.
		cfg := config.DefaultConfig()
		if config.ConfigExists(service.Path()) {
			loaded, err := service.Load()
			if err != nil {
				return err
			}
			cfg = loaded
		}

		log := newLogger(cfg, verbose)

		ctx := context.WithValue(cmd.Context(), "config", cfg)
		ctx = context.WithValue(ctx, "configService", service)
		ctx = context.WithValue(ctx, "logger", log)
		cmd.SetContext(ctx)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default is the user config dir)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// newLogger builds the process logger from config and the verbose flag
func newLogger(cfg *config.Config, verbose bool) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logrus.NewEntry(logger)
}
