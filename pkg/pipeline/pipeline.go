package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/muninn/pkg/parser"
	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/reader"
	"github.com/ssargent/muninn/pkg/record"
)

// Pipeline orchestrates the streaming reader, the line parser and the
// record pool into lazy record sequences. Independent pipelines share
// no state beyond the pool, so several may run concurrently against
// different sources.
type Pipeline struct {
	parser   *parser.Parser
	pool     *pool.RecordPool
	log      *logrus.Entry
	prescan  bool
	progress *progressStore
}

// NewPipeline creates an ingestion pipeline with the given
// configuration
func NewPipeline(cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Pipeline{
		parser:   parser.NewParser(&parser.Config{Pool: cfg.Pool, Logger: log}),
		pool:     cfg.Pool,
		log:      log,
		prescan:  cfg.PrescanTotals,
		progress: newProgressStore(),
	}
}

// Parse produces a lazy record sequence over a single file. Line
// numbers advance for every raw line read, so skipped lines leave gaps
// in the emitted numbers. The context is checked between lines;
// cancellation surfaces as ErrCancelled through the iterator's Err.
func (p *Pipeline) Parse(ctx context.Context, path string) (RecordIterator, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("parse: %w", ErrInvalidArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("parse %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("parse %s: is a directory: %w", path, ErrInvalidArgument)
	}

	var total int64
	if p.prescan {
		total = p.EstimateTotalLines(path)
	}

	source, err := reader.Open(path)
	if err != nil {
		return nil, err
	}

	p.log.WithField("path", path).Debug("starting parse")

	return p.newIterator(ctx, path, source, total), nil
}

// ParseFiles produces a lazy record sequence over an ordered list of
// files. Every path is validated up front; line numbers restart for
// each file and every record carries its source path.
func (p *Pipeline) ParseFiles(ctx context.Context, paths []string) (RecordIterator, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("parse files: %w", ErrInvalidArgument)
	}

	var total int64
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("parse files: %w", ErrInvalidArgument)
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("parse %s: %w", path, ErrNotFound)
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if p.prescan {
			total += p.EstimateTotalLines(path)
		}
	}

	p.log.WithField("files", len(paths)).Debug("starting parse")

	label := fmt.Sprintf("%d files", len(paths))

	return p.newIterator(ctx, label, reader.OpenFiles(paths), total), nil
}

// ParseDirectory discovers files matching pattern under dir (default
// *.log) and parses them in sorted order. A directory with no matching
// files yields an empty sequence.
func (p *Pipeline) ParseDirectory(ctx context.Context, dir, pattern string) (RecordIterator, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("parse directory: %w", ErrInvalidArgument)
	}

	paths, err := reader.Discover(dir, pattern)
	if err != nil {
		return nil, err
	}

	var total int64
	if p.prescan {
		for _, path := range paths {
			total += p.EstimateTotalLines(path)
		}
	}

	p.log.WithFields(logrus.Fields{
		"dir":   dir,
		"files": len(paths),
	}).Debug("starting parse")

	return p.newIterator(ctx, dir, reader.OpenFiles(paths), total), nil
}

// Progress returns the most recently published progress snapshot. Safe
// to call from a different goroutine than the one advancing the
// iterator.
func (p *Pipeline) Progress() Progress {
	return p.progress.snapshot()
}

func (p *Pipeline) newIterator(ctx context.Context, label string, source reader.LineIterator, total int64) *recordIterator {
	if ctx == nil {
		ctx = context.Background()
	}

	it := &recordIterator{
		ctx:      ctx,
		label:    label,
		path:     label,
		source:   source,
		parser:   p.parser,
		progress: p.progress,
		total:    total,
	}
	it.publish(false)

	return it
}

// recordIterator is the pull cursor behind every Parse variant. One
// line is read per advance; no partial records are ever yielded.
type recordIterator struct {
	ctx      context.Context
	label    string
	source   reader.LineIterator
	parser   *parser.Parser
	progress *progressStore
	total    int64

	rec     *record.Record
	err     error
	lines   int64
	emitted int64
	path    string
	done    bool
	closed  bool
}

// Next advances to the next parsed record, skipping lines that yield
// none. It returns false when the sequence ends; Err reports whether
// the end was clean, an I/O failure or a cancellation.
func (it *recordIterator) Next() bool {
	if it.done {
		return false
	}

	for {
		if it.ctx.Err() != nil {
			it.err = fmt.Errorf("parse %s: %w", it.label, ErrCancelled)
			it.finish()
			return false
		}

		if !it.source.Next() {
			it.err = it.source.Err()
			it.finish()
			return false
		}

		line := it.source.Line()
		it.lines++
		it.path = line.Path

		rec, ok := it.parser.Parse(line.Text, line.Number, line.Path)
		if ok {
			it.emitted++
		}
		it.publish(false)

		if ok {
			it.rec = rec
			return true
		}
	}
}

// Record returns the current record
func (it *recordIterator) Record() *record.Record {
	return it.rec
}

// Err returns the terminal error, nil after a clean drain
func (it *recordIterator) Err() error {
	return it.err
}

// Close publishes the final progress snapshot and releases the
// underlying source exactly once. Safe after an early stop.
func (it *recordIterator) Close() error {
	if !it.done {
		it.finish()
	}
	if it.closed {
		return nil
	}
	it.closed = true

	return it.source.Close()
}

func (it *recordIterator) finish() {
	it.done = true
	it.publish(true)
}

func (it *recordIterator) publish(done bool) {
	p := Progress{
		Path:           it.path,
		LinesRead:      it.lines,
		TotalLines:     it.total,
		RecordsEmitted: it.emitted,
		Done:           done,
		UpdatedAt:      time.Now(),
	}
	if it.total > 0 {
		p.Percent = float64(it.lines) / float64(it.total) * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}

	it.progress.update(p)
}
