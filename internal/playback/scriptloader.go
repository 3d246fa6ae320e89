package playback

import (
	"sync"

	"go.uber.org/zap"
)

// LoadState tracks the process-wide external widget API script.
type LoadState int

const (
	LoadNotRequested LoadState = iota
	LoadLoading
	LoadReady
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	default:
		return "not_requested"
	}
}

// ScriptLoader replaces the implicit global "widget API ready" flag with an
// explicit single-flight initializer. Any number of trackers may subscribe
// concurrently; the load function runs at most once, with no retry. If the
// external script never loads, subscribers get the error and the player
// stays inert.
type ScriptLoader struct {
	load func() error
	log  *zap.Logger

	mu    sync.Mutex
	state LoadState
	err   error
	subs  []func(error)
}

func NewScriptLoader(load func() error, log *zap.Logger) *ScriptLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptLoader{load: load, log: log}
}

// State reports the current load state.
func (l *ScriptLoader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe registers fn to run once the script is ready or failed. The
// first subscription triggers the load; settled loaders call back
// immediately.
func (l *ScriptLoader) Subscribe(fn func(error)) {
	l.mu.Lock()
	switch l.state {
	case LoadReady, LoadFailed:
		err := l.err
		l.mu.Unlock()
		fn(err)
		return
	case LoadLoading:
		l.subs = append(l.subs, fn)
		l.mu.Unlock()
		return
	}

	l.state = LoadLoading
	l.subs = append(l.subs, fn)
	l.mu.Unlock()

	go l.run()
}

func (l *ScriptLoader) run() {
	err := l.load()

	l.mu.Lock()
	if err != nil {
		l.state = LoadFailed
		l.err = err
		l.log.Warn("widget API script load failed", zap.Error(err))
	} else {
		l.state = LoadReady
	}
	subs := l.subs
	l.subs = nil
	l.mu.Unlock()

	for _, fn := range subs {
		fn(err)
	}
}
