package recursivehasher

import (
	"sync"
	"sync/atomic"
)

// Progress is the run context of one hashing pass. Workers update it; a
// presentation layer polls it. All methods are safe for concurrent use.
type Progress struct {
	total     atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64
	current   atomic.Pointer[string]

	doneOnce sync.Once
	done     chan struct{}
}

// ProgressSnapshot is a point-in-time copy of Progress
type ProgressSnapshot struct {
	Total       int64
	Completed   int64
	Failed      int64
	BytesHashed int64
	Current     string
}

// NewProgress creates an empty run context
func NewProgress() *Progress {
	return &Progress{done: make(chan struct{})}
}

// Total returns the number of files in the pass
func (p *Progress) Total() int64 { return p.total.Load() }

// Completed returns how many files have a record, successful or not
func (p *Progress) Completed() int64 { return p.completed.Load() }

// Failed returns how many files got a failure digest
func (p *Progress) Failed() int64 { return p.failed.Load() }

// BytesHashed returns the number of bytes read so far
func (p *Progress) BytesHashed() int64 { return p.bytes.Load() }

// Current returns the path most recently picked up by a worker
func (p *Progress) Current() string {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return ""
}

// Percent returns completion in the range 0-100
func (p *Progress) Percent() float64 {
	total := p.Total()
	if total == 0 {
		return 0
	}
	return float64(p.Completed()) / float64(total) * 100
}

// Done is closed when the pass has produced every record
func (p *Progress) Done() <-chan struct{} { return p.done }

// Snapshot copies the counters
func (p *Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Total:       p.Total(),
		Completed:   p.Completed(),
		Failed:      p.Failed(),
		BytesHashed: p.BytesHashed(),
		Current:     p.Current(),
	}
}

func (p *Progress) start(total int) {
	p.total.Store(int64(total))
}

func (p *Progress) begin(path string) {
	p.current.Store(&path)
}

func (p *Progress) finish(outcome HashOutcome, n int64) {
	p.bytes.Add(n)
	if !outcome.OK() {
		p.failed.Add(1)
	}
	p.completed.Add(1)
}

func (p *Progress) close() {
	p.doneOnce.Do(func() { close(p.done) })
}
