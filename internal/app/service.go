package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/farolabs/faro/internal/audit"
	"github.com/farolabs/faro/internal/logging"
	"github.com/farolabs/faro/internal/scraper"
	"github.com/farolabs/faro/internal/store"
	"github.com/farolabs/faro/internal/urlutil"
	"github.com/farolabs/faro/internal/webclient"
)

var ErrJobNotFound = errors.New("app: job not found")

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

// JobEvent is pushed on a job's Events channel on every status transition.
type JobEvent struct {
	JobID  string       `json:"job_id"`
	Type   JobEventType `json:"type"`
	Status JobStatus    `json:"status,omitempty"`
	Error  string       `json:"error,omitempty"`
	RunID  string       `json:"run_id,omitempty"`
	Score  int          `json:"score,omitempty"`
}

// Job is one background audit.
type Job struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Report *audit.Report `json:"report,omitempty"`
}

// Result is a completed audit plus where it was persisted.
type Result struct {
	RunID  string        `json:"run_id,omitempty"`
	Report *audit.Report `json:"report"`
	Cached bool          `json:"cached"`
}

// Service runs audits and owns their jobs, cache and persistence.
type Service struct {
	cfg            *Config
	logger         logging.Logger
	collector      *scraper.Collector
	client         webclient.WebClient
	store          *store.Store
	cache          *lru.Cache[string, *audit.Report]
	metrics        *Metrics
	scraperMetrics *scraper.Metrics

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewService builds the full pipeline from config: web client, collector,
// store, report cache and metrics.
func NewService(cfg *Config, logger logging.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	client, err := webclient.New(webclient.Config{
		Backend:   cfg.Backend,
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build web client: %w", err)
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	metrics := NewMetrics()
	cache, err := lru.New[string, *audit.Report](cfg.CacheSize)
	if err != nil {
		client.Close()
		st.Close()
		return nil, fmt.Errorf("build report cache: %w", err)
	}

	scraperMetrics := scraper.NewMetrics()

	return &Service{
		cfg:            cfg,
		logger:         logger.With(logging.Field{Key: "component", Value: "service"}),
		collector:      scraper.New(client, logger, scraperMetrics),
		client:         client,
		store:          st,
		cache:          cache,
		metrics:        metrics,
		scraperMetrics: scraperMetrics,
		jobs:           make(map[string]*Job),
		jobCancels:     make(map[string]context.CancelFunc),
	}, nil
}

// Metrics exposes the service registry for the /metrics endpoint.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Gatherers returns every metrics registry the service owns, for a combined
// /metrics endpoint.
func (s *Service) Gatherers() prometheus.Gatherers {
	return prometheus.Gatherers{s.metrics.Registry, s.scraperMetrics.Registry}
}

// Store exposes run history for the read-side handlers.
func (s *Service) Store() *store.Store { return s.store }

// RunAudit audits a URL synchronously: collect a snapshot, evaluate the
// checklist, persist the run. Identical markup reuses the cached report.
func (s *Service) RunAudit(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	canonical, err := urlutil.Canonicalize(rawURL, s.cfg.URLOpts)
	if err != nil {
		s.metrics.ObserveAudit("invalid_url", 0, time.Since(start))
		return nil, fmt.Errorf("canonicalize %q: %w", rawURL, err)
	}

	snap, err := s.collector.Collect(ctx, canonical)
	if err != nil {
		s.metrics.ObserveAudit("fetch_error", 0, time.Since(start))
		return nil, fmt.Errorf("collect snapshot: %w", err)
	}

	hash := snap.Hash()
	var (
		report *audit.Report
		cached bool
	)
	if rep, ok := s.cache.Get(hash); ok {
		report = rep
		cached = true
		s.metrics.IncCacheHit()
	} else {
		report = audit.Run(snap, nil, audit.DefaultQuickWinConfig())
		s.cache.Add(hash, report)
	}

	runID, err := s.store.Save(ctx, &store.Run{
		URL:          rawURL,
		CanonicalURL: canonical,
		SnapshotHash: hash,
		GlobalScore:  report.GlobalScore,
		Report:       report,
		HTML:         snap.HTML,
	})
	if err != nil {
		s.metrics.ObserveAudit("store_error", report.GlobalScore, time.Since(start))
		return nil, fmt.Errorf("save run: %w", err)
	}

	s.metrics.ObserveAudit("ok", report.GlobalScore, time.Since(start))
	s.logger.Info("audit complete",
		logging.Field{Key: "url", Value: canonical},
		logging.Field{Key: "run_id", Value: runID},
		logging.Field{Key: "score", Value: report.GlobalScore},
		logging.Field{Key: "cached", Value: cached})

	return &Result{RunID: runID, Report: report, Cached: cached}, nil
}

// StartAuditJob runs an audit in the background and returns immediately.
// Progress is reported on the job's Events channel, which is closed when the
// job reaches a terminal state.
func (s *Service) StartAuditJob(ctx context.Context, rawURL string) *Job {
	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		URL:       rawURL,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}

	jobCtx, cancel := context.WithCancel(ctx)

	s.jobsMu.Lock()
	s.jobs[jobID] = job
	s.jobCancels[jobID] = cancel
	s.jobsMu.Unlock()

	s.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer func() {
			s.jobsMu.Lock()
			job.EndedAt = time.Now().UTC()
			delete(s.jobCancels, jobID)
			s.jobsMu.Unlock()
			close(job.Events)
		}()

		s.setStatus(job, JobRunning, "")
		s.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobRunning})

		result, err := s.RunAudit(jobCtx, rawURL)
		if err != nil {
			if jobCtx.Err() != nil {
				s.setStatus(job, JobCanceled, jobCtx.Err().Error())
				s.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobCanceled, Error: jobCtx.Err().Error()})
			} else {
				s.setStatus(job, JobFailed, err.Error())
				s.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobFailed, Error: err.Error()})
			}
			return
		}

		s.jobsMu.Lock()
		job.Status = JobDone
		job.RunID = result.RunID
		job.Report = result.Report
		s.jobsMu.Unlock()

		s.emit(jobID, JobEvent{
			JobID:  jobID,
			Type:   JobEventResult,
			Status: JobDone,
			RunID:  result.RunID,
			Score:  result.Report.GlobalScore,
		})
	}()

	return job
}

// GetJob returns a job by ID.
func (s *Service) GetJob(jobID string) (*Job, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns every known job, newest first.
func (s *Service) ListJobs() []*Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	return jobs
}

// CancelJob cancels a running job. Finished jobs stay listed until deleted.
func (s *Service) CancelJob(jobID string) error {
	s.jobsMu.Lock()
	cancel, ok := s.jobCancels[jobID]
	s.jobsMu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	cancel()
	return nil
}

// DeleteJob cancels (if running) and forgets a job.
func (s *Service) DeleteJob(jobID string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return ErrJobNotFound
	}
	if cancel, ok := s.jobCancels[jobID]; ok {
		cancel()
		delete(s.jobCancels, jobID)
	}
	delete(s.jobs, jobID)
	return nil
}

func (s *Service) setStatus(job *Job, status JobStatus, errMsg string) {
	s.jobsMu.Lock()
	job.Status = status
	job.Error = errMsg
	s.jobsMu.Unlock()
}

// emit sends without blocking; slow consumers lose intermediate events.
func (s *Service) emit(jobID string, ev JobEvent) {
	s.jobsMu.Lock()
	job, ok := s.jobs[jobID]
	s.jobsMu.Unlock()
	if !ok || job.Events == nil {
		return
	}
	select {
	case job.Events <- ev:
	default:
	}
}

// Close cancels outstanding jobs and releases the client and store.
func (s *Service) Close() error {
	s.jobsMu.Lock()
	for id, cancel := range s.jobCancels {
		cancel()
		delete(s.jobCancels, id)
	}
	s.jobsMu.Unlock()

	var errs []error
	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
