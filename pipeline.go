package logpipe

import (
	"sync"

	"go.uber.org/atomic"
)

// Record is the per-call state threaded through the pipeline. A fresh
// record is created for every log call and dropped when the run ends.
type Record struct {
	ID      string
	Context Context
	Raw     any
	Message Message
	Level   Level
}

// StageFunc is one pipeline stage. Returning an error stops the run: the
// remaining stages are skipped and the terminal handler gets the error.
// The engine advances between stages.
type StageFunc func(rec *Record) error

// TerminalFunc always runs last. err is nil for successful runs.
type TerminalFunc func(rec *Record, err error)

type stage struct {
	kind   string
	plugin string
	run    StageFunc
}

// invoke runs the stage, converting panics and errors into a StageError.
func (s stage) invoke(rec *Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: s.kind, Plugin: s.plugin, Err: panicError(r)}
		}
	}()
	if e := s.run(rec); e != nil {
		return &StageError{Stage: s.kind, Plugin: s.plugin, Err: e}
	}
	return nil
}

// pipeline is an ordered list of stages followed by a terminal handler.
// Once sealed, the stage list is frozen.
type pipeline struct {
	mu       sync.RWMutex
	stages   []stage
	terminal TerminalFunc
	sealed   atomic.Bool
}

func newPipeline(terminal TerminalFunc) *pipeline {
	return &pipeline{terminal: terminal}
}

// use appends a stage. It fails with ErrAlreadyBuilt once sealed.
func (p *pipeline) use(s stage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed.Load() {
		return ErrAlreadyBuilt
	}
	p.stages = append(p.stages, s)
	return nil
}

// seal freezes the stage list. It reports whether this call sealed it.
func (p *pipeline) seal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sealed.CompareAndSwap(false, true)
}

func (p *pipeline) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stages)
}

// execute runs every stage in order on rec, then the terminal handler with
// the first failure (or nil). Side effects of stages that ran before a
// failure are kept.
func (p *pipeline) execute(rec *Record) error {
	p.mu.RLock()
	stages := p.stages
	p.mu.RUnlock()

	var failure error
	for _, s := range stages {
		if err := s.invoke(rec); err != nil {
			failure = err
			break
		}
	}

	if p.terminal != nil {
		p.runTerminal(rec, failure)
	}
	return failure
}

// runTerminal shields the caller from a panicking terminal handler.
func (p *pipeline) runTerminal(rec *Record, err error) {
	defer func() { _ = recover() }()
	p.terminal(rec, err)
}
