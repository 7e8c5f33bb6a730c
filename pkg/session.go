package recursivehasher

import (
	"fmt"
	"sync/atomic"
)

// Session ties configuration, the exception sink and the hashing algorithm
// together for a sequence of analyze and compare runs. A presentation layer
// drains Sink() and polls Progress() while a run is in flight.
type Session struct {
	config    *Config
	sink      *ExceptionSink
	algorithm *HashAlgorithm
	progress  atomic.Pointer[Progress]
}

// NewSession validates cfg and prepares the configured hash algorithm.
// sink may be nil, in which case the session creates its own.
func NewSession(cfg *Config, sink *ExceptionSink) (*Session, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	algorithm, err := GetHashAlgorithm(cfg.GetHashConfig().Default)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NewExceptionSink()
	}
	return &Session{config: cfg, sink: sink, algorithm: algorithm}, nil
}

// Close releases the hashing resources
func (s *Session) Close() {
	s.algorithm.Close()
}

// Config returns the session configuration
func (s *Session) Config() *Config { return s.config }

// Sink returns the exception sink shared by every stage
func (s *Session) Sink() *ExceptionSink { return s.sink }

// Algorithm returns the hash algorithm in use
func (s *Session) Algorithm() *HashAlgorithm { return s.algorithm }

// Progress returns the run context of the latest hashing pass, or nil before the first one
func (s *Session) Progress() *Progress { return s.progress.Load() }
