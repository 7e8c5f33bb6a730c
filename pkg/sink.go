package recursivehasher

import (
	"sync"
	"sync/atomic"
)

// ExceptionSink is an unbounded multi-producer, single-consumer FIFO of
// per-item failures. Producers never block; the consumer drains at its own pace.
// A nil *ExceptionSink discards everything.
type ExceptionSink struct {
	mu       sync.Mutex
	queue    []ExceptionRecord
	notify   chan struct{}
	enqueued atomic.Int64
}

// NewExceptionSink creates an empty sink
func NewExceptionSink() *ExceptionSink {
	return &ExceptionSink{
		notify: make(chan struct{}, 1),
	}
}

// Enqueue appends a record and wakes the consumer
func (s *ExceptionSink) Enqueue(rec ExceptionRecord) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, rec)
	s.mu.Unlock()
	s.enqueued.Add(1)

	select {
	case s.notify <- struct{}{}:
	default:
	}

	if IsDebugEnabled(rec.Stage) {
		VerboseLog(2, "exception queued: %s", rec.String())
	}
}

// Report classifies err and enqueues it under stage
func (s *ExceptionSink) Report(stage, path string, err error) ExceptionRecord {
	rec := NewExceptionRecord(stage, path, err)
	s.Enqueue(rec)
	return rec
}

// TryDequeue removes the oldest record, if any
func (s *ExceptionSink) TryDequeue() (ExceptionRecord, bool) {
	if s == nil {
		return ExceptionRecord{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return ExceptionRecord{}, false
	}
	rec := s.queue[0]
	s.queue[0] = ExceptionRecord{}
	s.queue = s.queue[1:]
	return rec, true
}

// Drain removes and returns every queued record in FIFO order
func (s *ExceptionSink) Drain() []ExceptionRecord {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

// Len returns the number of records waiting to be drained
func (s *ExceptionSink) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Enqueued returns how many records were ever enqueued
func (s *ExceptionSink) Enqueued() int64 {
	if s == nil {
		return 0
	}
	return s.enqueued.Load()
}

// Notify returns a channel that receives after new records arrive.
// Wakeups coalesce: one receive may cover several records.
func (s *ExceptionSink) Notify() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.notify
}
