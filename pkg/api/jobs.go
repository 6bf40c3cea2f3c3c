package api

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/muninn/pkg/history"
	"github.com/ssargent/muninn/pkg/pipeline"
	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/record"
)

// Job status values. Finished jobs share the session history
// vocabulary so the job id doubles as the session id.
const (
	JobRunning   = "running"
	JobCompleted = history.StatusCompleted
	JobCancelled = history.StatusCancelled
	JobFailed    = history.StatusFailed
)

// JobManagerConfig holds job manager configuration
type JobManagerConfig struct {
	Pool          *pool.RecordPool
	Sessions      SessionStore
	Metrics       *Metrics
	Logger        *logrus.Entry
	PrescanTotals bool
}

// JobManager runs server-side parse jobs and tracks their state
type JobManager struct {
	pool     *pool.RecordPool
	sessions SessionStore
	metrics  *Metrics
	log      *logrus.Entry
	prescan  bool

	mu   sync.RWMutex
	jobs map[string]*parseJob
}

// parseJob is one asynchronous ingestion run. Each job owns its
// pipeline so progress snapshots stay isolated between jobs.
type parseJob struct {
	id        string
	path      string
	pattern   string
	startedAt time.Time
	pipeline  *pipeline.Pipeline
	cancel    context.CancelFunc

	mu           sync.Mutex
	status       string
	finishedAt   time.Time
	errText      string
	infoCount    int64
	warningCount int64
	errorCount   int64
}

// NewJobManager creates a job manager
func NewJobManager(cfg JobManagerConfig) *JobManager {
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &JobManager{
		pool:     cfg.Pool,
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		log:      log,
		prescan:  cfg.PrescanTotals,
		jobs:     make(map[string]*parseJob),
	}
}

// Start launches a parse job over path and returns its id. Directory
// paths are walked with pattern; file paths ignore it.
func (m *JobManager) Start(path, pattern string) (string, error) {
	pl := pipeline.NewPipeline(&pipeline.Config{
		Pool:          m.pool,
		Logger:        m.log,
		PrescanTotals: m.prescan,
	})

	ctx, cancel := context.WithCancel(context.Background())

	var (
		it  pipeline.RecordIterator
		err error
	)
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		it, err = pl.ParseDirectory(ctx, path, pattern)
	} else {
		it, err = pl.Parse(ctx, path)
	}
	if err != nil {
		cancel()
		return "", err
	}

	job := &parseJob{
		id:        ksuid.New().String(),
		path:      path,
		pattern:   pattern,
		startedAt: time.Now(),
		pipeline:  pl,
		cancel:    cancel,
		status:    JobRunning,
	}

	m.mu.Lock()
	m.jobs[job.id] = job
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.JobStarted()
	}
	m.log.WithFields(logrus.Fields{
		"job":  job.id,
		"path": path,
	}).Info("parse job started")

	go m.run(job, it)

	return job.id, nil
}

// Snapshot returns the observable state of a job
func (m *JobManager) Snapshot(id string) (*JobSnapshot, bool) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	job.mu.Lock()
	snapshot := &JobSnapshot{
		ID:           job.id,
		Path:         job.path,
		Pattern:      job.pattern,
		Status:       job.status,
		StartedAt:    job.startedAt,
		FinishedAt:   job.finishedAt,
		InfoCount:    job.infoCount,
		WarningCount: job.warningCount,
		ErrorCount:   job.errorCount,
		Error:        job.errText,
	}
	job.mu.Unlock()

	snapshot.Progress = job.pipeline.Progress()

	return snapshot, true
}

// Cancel requests cancellation of a running job. The job transitions
// to cancelled once its worker observes the context.
func (m *JobManager) Cancel(id string) bool {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	job.cancel()

	return true
}

// run drains the iterator, counting severities and recycling every
// record into the pool.
func (m *JobManager) run(job *parseJob, it pipeline.RecordIterator) {
	defer job.cancel()

	var infos, warnings, errorCount int64
	for it.Next() {
		rec := it.Record()
		switch rec.Level {
		case record.LevelError:
			errorCount++
		case record.LevelWarning:
			warnings++
		default:
			infos++
		}
		if m.metrics != nil {
			m.metrics.RecordParsed(string(rec.Level))
		}
		if m.pool != nil {
			m.pool.Return(rec)
		}
	}
	runErr := it.Err()
	_ = it.Close()

	status := JobCompleted
	errText := ""
	switch {
	case errors.Is(runErr, pipeline.ErrCancelled):
		status = JobCancelled
	case runErr != nil:
		status = JobFailed
		errText = runErr.Error()
	}

	finished := time.Now()

	job.mu.Lock()
	job.status = status
	job.finishedAt = finished
	job.errText = errText
	job.infoCount = infos
	job.warningCount = warnings
	job.errorCount = errorCount
	job.mu.Unlock()

	progress := job.pipeline.Progress()

	if m.metrics != nil {
		m.metrics.JobFinished(finished.Sub(job.startedAt), progress.LinesRead)
		if m.pool != nil {
			m.metrics.SetPoolHitRatio(m.pool.Statistics().HitRatio)
		}
	}

	entry := m.log.WithFields(logrus.Fields{
		"job":     job.id,
		"status":  status,
		"lines":   progress.LinesRead,
		"records": progress.RecordsEmitted,
	})
	if status == JobFailed {
		entry.WithError(runErr).Warn("parse job failed")
	} else {
		entry.Info("parse job finished")
	}

	m.recordSession(job, progress)
}

// recordSession writes the finished job to session history
func (m *JobManager) recordSession(job *parseJob, progress pipeline.Progress) {
	if m.sessions == nil {
		return
	}

	job.mu.Lock()
	session := &history.Session{
		ID:             job.id,
		Path:           job.path,
		Pattern:        job.pattern,
		StartedAt:      job.startedAt,
		FinishedAt:     job.finishedAt,
		LinesRead:      progress.LinesRead,
		RecordsEmitted: progress.RecordsEmitted,
		InfoCount:      job.infoCount,
		WarningCount:   job.warningCount,
		ErrorCount:     job.errorCount,
		Status:         job.status,
		Error:          job.errText,
	}
	job.mu.Unlock()

	if err := m.sessions.Put(session); err != nil {
		m.log.WithError(err).Warn("error recording parse session")
	}
}
