package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/ssargent/muninn/pkg/record"
)

// Filter represents the record conditions of a single query. Zero
// values leave a condition open: an empty level set keeps every
// severity, a zero time leaves that side of the window unbounded.
type Filter struct {
	Levels   []record.Level // Severities to keep
	Contains string         // Case-insensitive substring of the message
	Since    time.Time      // Inclusive lower bound on the record timestamp
	Until    time.Time      // Inclusive upper bound on the record timestamp
}

// Validate checks if the filter is properly formed
func (f *Filter) Validate() error {
	for _, level := range f.Levels {
		switch level {
		case record.LevelInfo, record.LevelWarning, record.LevelError:
		default:
			return fmt.Errorf("invalid level: %s", level)
		}
	}

	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return fmt.Errorf("until %s precedes since %s",
			f.Until.Format(time.RFC3339), f.Since.Format(time.RFC3339))
	}

	return nil
}

// Matches reports whether a record satisfies every condition
func (f *Filter) Matches(rec *record.Record) bool {
	if len(f.Levels) > 0 && !f.levelAllowed(rec.Level) {
		return false
	}
	if f.Contains != "" && !strings.Contains(strings.ToLower(rec.Message), strings.ToLower(f.Contains)) {
		return false
	}
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.Timestamp.After(f.Until) {
		return false
	}

	return true
}

func (f *Filter) levelAllowed(level record.Level) bool {
	for _, allowed := range f.Levels {
		if level == allowed {
			return true
		}
	}

	return false
}

// ParseLevels converts severity names into filter levels
func ParseLevels(names []string) ([]record.Level, error) {
	var levels []record.Level
	for _, name := range names {
		level, err := record.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	return levels, nil
}
