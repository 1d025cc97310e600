package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-api/internal/api/metrics"
	"github.com/99minutos/task-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrPoolClosed is returned for jobs submitted after the pool stopped.
var ErrPoolClosed = errors.New("hash pool closed")

var _ ports.PasswordHasher = (*HashPool)(nil)

type hashOp string

const (
	opHash    hashOp = "hash"
	opCompare hashOp = "compare"
)

type hashJob struct {
	ctx      context.Context
	op       hashOp
	password string
	hash     string
	result   chan hashResult
}

type hashResult struct {
	hash string
	err  error
}

// HashPool runs password hashing on a fixed set of workers so a burst of
// logins cannot occupy more than numWorkers CPUs. It implements
// ports.PasswordHasher by delegating to inner; callers block until their job
// finishes, their context ends, or the pool stops.
type HashPool struct {
	inner   ports.PasswordHasher
	workers int
	jobs    chan hashJob
	log     zerolog.Logger

	once sync.Once
	done chan struct{}
}

// NewHashPool creates a pool with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewHashPool(numWorkers int, inner ports.PasswordHasher, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &HashPool{
		inner:   inner,
		workers: numWorkers,
		jobs:    make(chan hashJob, channelBuffer),
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// after which every pending and future job fails with ErrPoolClosed.
func (p *HashPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		p.once.Do(func() { close(p.done) })
	}()
}

// Workers returns the pool size.
func (p *HashPool) Workers() int { return p.workers }

func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	res, err := p.submit(ctx, hashJob{op: opHash, password: password})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

func (p *HashPool) Compare(ctx context.Context, hash, password string) error {
	res, err := p.submit(ctx, hashJob{op: opCompare, hash: hash, password: password})
	if err != nil {
		return err
	}
	return res.err
}

func (p *HashPool) submit(ctx context.Context, job hashJob) (hashResult, error) {
	job.ctx = ctx
	job.result = make(chan hashResult, 1)

	select {
	case <-p.done:
		return hashResult{}, ErrPoolClosed
	default:
	}

	select {
	case p.jobs <- job:
		metrics.PasswordHashQueueDepth.Inc()
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	case <-p.done:
		return hashResult{}, ErrPoolClosed
	}

	select {
	case res := <-job.result:
		return res, nil
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	case <-p.done:
		return hashResult{}, ErrPoolClosed
	}
}

func (p *HashPool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			metrics.PasswordHashQueueDepth.Dec()
			// The caller gave up while the job was queued.
			if job.ctx.Err() != nil {
				continue
			}
			job.result <- p.run(job, id)
		}
	}
}

func (p *HashPool) run(job hashJob, id int) hashResult {
	start := time.Now()
	defer func() {
		metrics.PasswordHashDuration.WithLabelValues(string(job.op)).Observe(time.Since(start).Seconds())
	}()

	var res hashResult
	switch job.op {
	case opHash:
		res.hash, res.err = p.inner.Hash(job.ctx, job.password)
	case opCompare:
		res.err = p.inner.Compare(job.ctx, job.hash, job.password)
	}
	if res.err != nil && job.op == opHash {
		p.log.Debug().Err(res.err).Int("worker_id", id).Msg("password hash failed")
	}
	return res
}
