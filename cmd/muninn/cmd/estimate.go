package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/muninn/pkg/config"
	"github.com/ssargent/muninn/pkg/pipeline"
	"github.com/ssargent/muninn/pkg/reader"
)

var estimatePattern string

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate <path>",
	Short: "Estimate the line count of a file or directory",
	Long: `Estimate how many lines a parse of the given source would read.
Archives are counted through their decompressed form, so the estimate
matches what a parse would see. Directories sum the estimates of every
matching file.

Example:
  muninn estimate ./app.log
  muninn estimate /var/log/myapp --pattern "*.log.gz"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := cmd.Context().Value("config").(*config.Config)
		if !ok {
			return fmt.Errorf("config not found in context")
		}
		log, ok := cmd.Context().Value("logger").(*logrus.Entry)
		if !ok {
			return fmt.Errorf("logger not found in context")
		}

		source := args[0]

		info, err := os.Stat(source)
		if err != nil {
			return fmt.Errorf("estimate %s: %w", source, err)
		}

		pattern := estimatePattern
		if pattern == "" {
			pattern = cfg.Ingest.Pattern
		}

		pl := pipeline.NewPipeline(&pipeline.Config{Logger: log})

		var total int64
		var files int
		if info.IsDir() {
			paths, err := reader.Discover(source, pattern)
			if err != nil {
				return err
			}
			for _, path := range paths {
				total += pl.EstimateTotalLines(path)
			}
			files = len(paths)
		} else {
			total = pl.EstimateTotalLines(source)
			files = 1
		}

		out := cmd.OutOrStdout()
		if files == 1 {
			fmt.Fprintf(out, "%d lines\n", total)
		} else {
			fmt.Fprintf(out, "%d lines across %d files\n", total, files)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringVar(&estimatePattern, "pattern", "", "Filename pattern for directory sources (default from config)")
}
