package worker

import (
	"sync"

	"github.com/charmbracelet/log"
)

// EnergySink receives preview energy readings. It reports false when the
// target entry no longer exists.
type EnergySink interface {
	ApplyEnergy(index int, energy float64) bool
}

// PreviewJob asks the pool to analyze one resolved preview.
type PreviewJob struct {
	Index      int
	PreviewURL string
	Sink       EnergySink
}

// Pool manages background workers that stream track previews and estimate
// their energy.
type Pool struct {
	workers int
	jobs    chan PreviewJob
	wg      sync.WaitGroup
	logger  *log.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool creates a preview analysis pool with the given worker count and
// queue size.
func NewPool(workers int, queueSize int, logger *log.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan PreviewJob, queueSize),
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue. Submissions
// arriving after Stop are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a job without blocking. Preview analysis is best effort, so a
// full queue drops the job.
func (p *Pool) Submit(job PreviewJob) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.jobs <- job:
	default:
		p.logger.Warn("worker: dropping preview job", "index", job.Index)
	}
}

func (p *Pool) processJob(job PreviewJob) {
	if job.PreviewURL == "" || job.Sink == nil {
		return
	}

	energy, err := AnalyzePreviewFunc(job.PreviewURL)
	if err != nil {
		p.logger.Warn("worker: preview analysis failed", "index", job.Index, "err", err)
		return
	}

	if !job.Sink.ApplyEnergy(job.Index, energy) {
		p.logger.Debug("worker: stale preview result discarded", "index", job.Index)
		return
	}
	p.logger.Debug("worker: preview analyzed", "index", job.Index, "energy", energy)
}
