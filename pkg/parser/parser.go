package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/record"
)

// timestampLayout matches the line prefix after the millisecond
// separator has been normalized to a dot.
const timestampLayout = "2006-01-02 15:04:05.000"

var (
	// linePattern is the quick predicate: a line qualifies when it opens
	// with a YYYY-MM-DD HH:MM:SS[,.]mmm timestamp.
	linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}[,.]\d{3}`)

	// entryPattern is the full structured form: timestamp, whitespace,
	// message remainder. Both patterns must match to produce a record.
	entryPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}[,.]\d{3})\s+(.*)$`)
)

// Config holds parser configuration
type Config struct {
	Pool   *pool.RecordPool // Optional record source; nil allocates directly
	Logger *logrus.Entry    // Sink for non-fatal diagnostics
}

// Parser classifies raw lines and extracts log records
type Parser struct {
	pool *pool.RecordPool
	log  *logrus.Entry
}

// NewParser creates a parser with the given configuration
func NewParser(cfg *Config) *Parser {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Parser{
		pool: cfg.Pool,
		log:  log,
	}
}

// IsLogLine reports whether a line begins with the timestamp prefix.
// Pure predicate, no side effects.
func IsLogLine(line string) bool {
	return linePattern.MatchString(line)
}

// Parse classifies a raw line and extracts a record from it. The second
// return value is false when the line yields no record: blank or
// whitespace-only lines, lines without the timestamp prefix, and lines
// whose full structured pattern does not match. Parse never fails on
// malformed input; an unparsable timestamp falls back to the current
// processing time.
func (p *Parser) Parse(line string, lineNumber int, sourceFile string) (*record.Record, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}
	if !IsLogLine(line) {
		return nil, false
	}

	parts := entryPattern.FindStringSubmatch(line)
	if parts == nil {
		return nil, false
	}

	rec := p.acquire()
	rec.Timestamp = parseTimestamp(parts[1])
	rec.Level = Classify(parts[2])
	rec.Message = parts[2]
	rec.SourceFile = sourceFile
	rec.LineNumber = lineNumber

	return rec, true
}

// Classify scans a message for severity markers. "error" wins over
// "warning"; occurrences preceded by a standalone "0 " token are
// zero-count summaries and do not count.
func Classify(message string) record.Level {
	lower := strings.ToLower(message)

	if containsUnsuppressed(lower, "error") {
		return record.LevelError
	}
	if containsUnsuppressed(lower, "warning") {
		return record.LevelWarning
	}

	return record.LevelInfo
}

// acquire draws a record from the pool when one is attached, falling
// back to direct allocation so a pool failure never loses a line.
func (p *Parser) acquire() *record.Record {
	if p.pool == nil {
		return record.New()
	}

	rec, err := p.pool.Get()
	if err != nil {
		p.log.WithError(err).Debug("pool get failed, allocating record directly")
		return record.New()
	}

	return rec
}

func parseTimestamp(s string) time.Time {
	normalized := strings.Replace(s, ",", ".", 1)

	ts, err := time.Parse(timestampLayout, normalized)
	if err != nil {
		return time.Now()
	}

	return ts
}

// containsUnsuppressed reports whether needle occurs in lower outside a
// zero-count summary.
func containsUnsuppressed(lower, needle string) bool {
	for start := 0; ; {
		idx := strings.Index(lower[start:], needle)
		if idx < 0 {
			return false
		}

		abs := start + idx
		if !zeroCountPrefix(lower[:abs]) {
			return true
		}

		start = abs + 1
	}
}

// zeroCountPrefix reports whether prefix ends with a standalone "0 "
// token, as in "finished with 0 errors". A trailing "10 " is a
// different count and does not suppress.
func zeroCountPrefix(prefix string) bool {
	if !strings.HasSuffix(prefix, "0 ") {
		return false
	}
	if len(prefix) == 2 {
		return true
	}

	c := prefix[len(prefix)-3]

	return c == ' ' || c == '\t'
}
