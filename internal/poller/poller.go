// Package poller keeps a task's note list fresh: one fetch on activation,
// one every interval while active, and on-demand refreshes in between.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/tasknotes/internal/model"
	"go.uber.org/zap"
)

const DefaultInterval = 10 * time.Second

type Source int

const (
	SourceScheduled Source = iota
	SourceManual
)

func (s Source) String() string {
	if s == SourceManual {
		return "manual"
	}
	return "scheduled"
}

type Fetcher interface {
	ListNotes(ctx context.Context, taskID string) ([]model.Note, error)
}

// Result is the outcome of one fetch. Seq increases with issue order.
type Result struct {
	TaskID string
	Seq    uint64
	Source Source
	Notes  []model.Note
	Err    error
}

type Options struct {
	Interval time.Duration
	Buffer   int
	Logger   *zap.Logger
}

type run struct {
	taskID string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *zap.Logger
	out      chan Result

	mu        sync.Mutex
	active    *run
	seq       uint64
	delivered uint64

	dropped atomic.Uint64
	stale   atomic.Uint64
}

func New(fetcher Fetcher, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: opts.Interval,
		logger:   opts.Logger,
		out:      make(chan Result, opts.Buffer),
	}
}

func (p *Poller) C() <-chan Result {
	return p.out
}

// Start activates polling for taskID, replacing any previous activation.
// An empty taskID only deactivates.
func (p *Poller) Start(taskID string) {
	p.Stop()
	if taskID == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{taskID: taskID, ctx: ctx, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	p.active = r
	p.mu.Unlock()

	p.logger.Info("notes polling started", zap.String("task_id", taskID), zap.Duration("interval", p.interval))
	go p.loop(r)
}

// Stop cancels the interval. Fetches in flight are abandoned and their
// results never delivered.
func (p *Poller) Stop() {
	p.mu.Lock()
	r := p.active
	p.active = nil
	p.mu.Unlock()
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
	r.wg.Wait()
	p.logger.Info("notes polling stopped", zap.String("task_id", r.taskID))
}

// Refresh performs one fetch outside the interval cadence. It is a no-op
// while inactive.
func (p *Poller) Refresh() {
	p.mu.Lock()
	r := p.active
	if r == nil {
		p.mu.Unlock()
		return
	}
	r.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer r.wg.Done()
		p.fetch(r, SourceManual)
	}()
}

func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

func (p *Poller) Dropped() uint64 { return p.dropped.Load() }

// Stale counts results discarded because a newer fetch was delivered first.
func (p *Poller) Stale() uint64 { return p.stale.Load() }

func (p *Poller) loop(r *run) {
	defer close(r.done)
	p.fetch(r, SourceScheduled)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			p.fetch(r, SourceScheduled)
		}
	}
}

func (p *Poller) fetch(r *run, source Source) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	notes, err := p.fetcher.ListNotes(r.ctx, r.taskID)
	if r.ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn("notes fetch failed",
			zap.String("task_id", r.taskID),
			zap.Stringer("source", source),
			zap.Error(err),
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != r {
		return
	}
	if seq < p.delivered {
		p.stale.Add(1)
		p.logger.Debug("stale notes result discarded",
			zap.Uint64("seq", seq),
			zap.Uint64("delivered", p.delivered),
			zap.Stringer("source", source),
		)
		return
	}
	p.delivered = seq
	res := Result{TaskID: r.taskID, Seq: seq, Source: source, Notes: notes, Err: err}
	select {
	case p.out <- res:
	default:
		p.dropped.Add(1)
		p.logger.Warn("notes result dropped", zap.Uint64("seq", seq))
	}
}
