package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/muninn/pkg/config"
	"github.com/ssargent/muninn/pkg/history"
	"github.com/ssargent/muninn/pkg/pipeline"
	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/query"
	"github.com/ssargent/muninn/pkg/record"
)

// Output formats accepted by --format.
const (
	formatText   = "text"
	formatNDJSON = "ndjson"
)

var (
	parsePattern   string
	parseLevels    []string
	parseContains  string
	parseSince     string
	parseUntil     string
	parseFormat    string
	parseProgress  bool
	parseStats     bool
	parseNoHistory bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <path>...",
	Short: "Parse log files or directories into structured records",
	Long: `Parse plain-text or archived log files into structured records and
print them. Directories are expanded with the ingest pattern.

Example:
  muninn parse ./app.log
  muninn parse /var/log/myapp --pattern "*.log" --level error --contains timeout
  muninn parse ./app.log.gz --format ndjson --since "2024-01-01"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := cmd.Context().Value("config").(*config.Config)
		if !ok {
			return fmt.Errorf("config not found in context")
		}
		log, ok := cmd.Context().Value("logger").(*logrus.Entry)
		if !ok {
			return fmt.Errorf("logger not found in context")
		}

		filter, err := buildFilter()
		if err != nil {
			return err
		}
		if err := filter.Validate(); err != nil {
			return err
		}

		format := strings.ToLower(parseFormat)
		if format != formatText && format != formatNDJSON {
			return fmt.Errorf("unknown format %q (want text or ndjson)", parseFormat)
		}

		pattern := parsePattern
		if pattern == "" {
			pattern = cfg.Ingest.Pattern
		}

		recordPool := pool.NewRecordPool(&pool.Config{Capacity: cfg.Pool.MaxIdle, Logger: log})
		defer recordPool.Close()

		pl := pipeline.NewPipeline(&pipeline.Config{
			Pool:          recordPool,
			Logger:        log,
			PrescanTotals: cfg.Ingest.PrescanTotals,
		})
		engine := query.NewEngine(pl, recordPool)

		var sessions *history.Store
		if !parseNoHistory {
			sessions, err = history.Open(cfg.History.Path)
			if err != nil {
				log.WithError(err).Warn("error opening history store; sessions will not be recorded")
			} else {
				defer sessions.Close()
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var progressDone chan struct{}
		if parseProgress {
			progressDone = make(chan struct{})
			startProgressTicker(pl, progressDone)
		}

		out := cmd.OutOrStdout()

		for _, source := range args {
			startedAt := time.Now()

			tally, runErr := drainSource(ctx, engine, recordPool, source, pattern, filter, format, out)
			recordParseSession(sessions, log, source, pattern, startedAt, tally, pl.Progress(), runErr)

			if runErr != nil {
				return runErr
			}
		}

		if progressDone != nil {
			close(progressDone)
			fmt.Fprintf(os.Stderr, "\r%s\n", formatProgress(pl.Progress()))
		}

		if parseStats {
			printPoolStats(out, recordPool.Statistics())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parsePattern, "pattern", "", "Filename pattern for directory sources (default from config)")
	parseCmd.Flags().StringSliceVar(&parseLevels, "level", nil, "Keep only these severities (repeatable: info, warning, error)")
	parseCmd.Flags().StringVar(&parseContains, "contains", "", "Keep only records whose message contains this text")
	parseCmd.Flags().StringVar(&parseSince, "since", "", "Keep only records at or after this time")
	parseCmd.Flags().StringVar(&parseUntil, "until", "", "Keep only records at or before this time")
	parseCmd.Flags().StringVar(&parseFormat, "format", formatText, "Output format: text or ndjson")
	parseCmd.Flags().BoolVar(&parseProgress, "progress", false, "Report parse progress on stderr")
	parseCmd.Flags().BoolVar(&parseStats, "stats", false, "Print pool statistics after the run")
	parseCmd.Flags().BoolVar(&parseNoHistory, "no-history", false, "Skip recording a parse session")
}

// Layouts accepted by --since and --until, tried in order.
var timeFlagLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimeFlag converts a --since or --until value into a local time
func parseTimeFlag(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeFlagLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time %q (try 2006-01-02 or \"2006-01-02 15:04:05\")", value)
}

// buildFilter assembles a record filter from the parse flags
func buildFilter() (query.Filter, error) {
	var filter query.Filter

	levels, err := query.ParseLevels(parseLevels)
	if err != nil {
		return filter, err
	}
	filter.Levels = levels
	filter.Contains = parseContains

	if parseSince != "" {
		ts, err := parseTimeFlag(parseSince)
		if err != nil {
			return filter, fmt.Errorf("--since: %w", err)
		}
		filter.Since = ts
	}
	if parseUntil != "" {
		ts, err := parseTimeFlag(parseUntil)
		if err != nil {
			return filter, fmt.Errorf("--until: %w", err)
		}
		filter.Until = ts
	}

	return filter, nil
}

// recordLine is the NDJSON projection of a parsed record
type recordLine struct {
	Timestamp  time.Time    `json:"timestamp"`
	Level      record.Level `json:"level"`
	Message    string       `json:"message"`
	SourceFile string       `json:"source_file"`
	LineNumber int          `json:"line_number"`
}

// sourceTally counts the records printed for one source
type sourceTally struct {
	info    int64
	warning int64
	errs    int64
}

// drainSource runs one source through the query engine and prints every
// matching record, returning each one to the pool after it is written
func drainSource(ctx context.Context, engine *query.Engine, recordPool *pool.RecordPool,
	source, pattern string, filter query.Filter, format string, out io.Writer) (sourceTally, error) {
	var tally sourceTally

	it, err := engine.Run(ctx, source, pattern, filter)
	if err != nil {
		return tally, err
	}
	defer it.Close()

	encoder := json.NewEncoder(out)

	for it.Next() {
		rec := it.Record()

		switch rec.Level {
		case record.LevelWarning:
			tally.warning++
		case record.LevelError:
			tally.errs++
		default:
			tally.info++
		}

		var writeErr error
		if format == formatNDJSON {
			writeErr = encoder.Encode(recordLine{
				Timestamp:  rec.Timestamp,
				Level:      rec.Level,
				Message:    rec.Message,
				SourceFile: rec.SourceFile,
				LineNumber: rec.LineNumber,
			})
		} else {
			_, writeErr = fmt.Fprintf(out, "%s  %-7s %s\n",
				rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Level, rec.Message)
		}

		recordPool.Return(rec)

		if writeErr != nil {
			return tally, fmt.Errorf("write record: %w", writeErr)
		}
	}

	return tally, it.Err()
}

// recordParseSession stores the outcome of one source drain in session
// history. Failures are logged and swallowed; history never blocks a
// parse.
func recordParseSession(sessions *history.Store, log *logrus.Entry, source, pattern string,
	startedAt time.Time, tally sourceTally, snap pipeline.Progress, runErr error) {
	if sessions == nil {
		return
	}

	status := history.StatusCompleted
	errText := ""
	switch {
	case errors.Is(runErr, pipeline.ErrCancelled):
		status = history.StatusCancelled
	case runErr != nil:
		status = history.StatusFailed
		errText = runErr.Error()
	}

	session := &history.Session{
		Path:           source,
		Pattern:        pattern,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		LinesRead:      snap.LinesRead,
		RecordsEmitted: snap.RecordsEmitted,
		InfoCount:      tally.info,
		WarningCount:   tally.warning,
		ErrorCount:     tally.errs,
		Status:         status,
		Error:          errText,
	}

	if err := sessions.Put(session); err != nil {
		log.WithError(err).Warn("error recording parse session")
	}
}

// startProgressTicker reports progress snapshots on stderr until done
// is closed
func startProgressTicker(pl *pipeline.Pipeline, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s", formatProgress(pl.Progress()))
			}
		}
	}()
}

// formatProgress renders a progress snapshot as a single status line
func formatProgress(p pipeline.Progress) string {
	if p.TotalLines > 0 {
		return fmt.Sprintf("%s: %d/%d lines (%.1f%%)", p.Path, p.LinesRead, p.TotalLines, p.Percent)
	}

	return fmt.Sprintf("%s: %d lines", p.Path, p.LinesRead)
}

// printPoolStats prints a pool statistics summary
func printPoolStats(out io.Writer, stats pool.Statistics) {
	fmt.Fprintf(out, "\nPool statistics:\n")
	fmt.Fprintf(out, "  gets:           %d\n", stats.TotalGets)
	fmt.Fprintf(out, "  returns:        %d\n", stats.TotalReturns)
	fmt.Fprintf(out, "  hits:           %d\n", stats.PoolHits)
	fmt.Fprintf(out, "  misses:         %d\n", stats.PoolMisses)
	fmt.Fprintf(out, "  hit ratio:      %.1f%%\n", stats.HitRatio*100)
	fmt.Fprintf(out, "  idle records:   %d\n", stats.CurrentPoolSize)
	fmt.Fprintf(out, "  instances made: %d\n", stats.TotalInstancesCreated)
	fmt.Fprintf(out, "  memory saved:   %d bytes\n", stats.MemorySavedBytes)
}
