package playback

import (
	"math"
	"sync"
	"time"

	"cursoteca_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// Engine defaults, matching the cadence the server's write budget was sized
// for.
const (
	DefaultTickInterval      = time.Second
	DefaultEmitInterval      = 10 * time.Second
	DefaultSeekTolerance     = 2.0
	DefaultMaxPlausibleDelta = 3.0
	CompletionRatio          = 0.95
)

// State is the tracker lifecycle state.
type State int

const (
	StateIdle State = iota
	StateBound
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Options tunes one tracker instance. Zero values take the defaults above.
type Options struct {
	TickInterval      time.Duration
	EmitInterval      time.Duration
	SeekTolerance     float64
	MaxPlausibleDelta float64

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
	// ManualTicks disables the internal timer goroutines; the owner drives
	// Tick and EmitTick itself. Used by tests.
	ManualTicks bool
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.EmitInterval <= 0 {
		o.EmitInterval = DefaultEmitInterval
	}
	if o.SeekTolerance <= 0 {
		o.SeekTolerance = DefaultSeekTolerance
	}
	if o.MaxPlausibleDelta <= 0 {
		o.MaxPlausibleDelta = DefaultMaxPlausibleDelta
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Callbacks are the host-facing events. All fire synchronously from tracker
// handlers; nil callbacks are skipped.
type Callbacks struct {
	OnProgress  func(Snapshot)
	OnCompleted func()
	OnEnded     func()
}

// Tracker owns the position/watched/max-reached triple for one
// (module, video) currently on screen. One instance per mount; destroyed and
// recreated when the student switches videos.
type Tracker struct {
	moduleID string
	ref      VideoRef
	provider Provider
	opts     Options
	cb       Callbacks
	log      *zap.Logger

	mu            sync.Mutex
	surface       Surface
	state         State
	watched       float64
	maxReached    float64
	duration      float64
	position      float64
	lastTick      time.Time
	completed     bool
	resumeApplied bool
	hint          ResumeHint
	destroyed     bool
	stop          chan struct{}
}

// NewTracker builds an Idle tracker. The resume hint is read once at bind
// time; late-arriving hints go through LateResume.
func NewTracker(moduleID string, ref VideoRef, hint ResumeHint, opts Options, cb Callbacks, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		moduleID: moduleID,
		ref:      ref,
		provider: Classify(ref.URL),
		opts:     opts.withDefaults(),
		cb:       cb,
		log:      log,
		state:    StateIdle,
		hint:     sanitizeHint(hint, ref.DurationSeconds),
		duration: ref.DurationSeconds,
	}
}

// sanitizeHint clamps malformed server hints instead of rejecting them.
func sanitizeHint(h ResumeHint, duration float64) ResumeHint {
	if h.MaxReached < 0 {
		h.MaxReached = 0
	}
	if h.WatchedSeconds < 0 {
		h.WatchedSeconds = 0
	}
	if h.LastPosition < 0 {
		h.LastPosition = 0
	}
	if duration > 0 && h.LastPosition > duration {
		h.LastPosition = duration
	}
	return h
}

// Provider reports the classified backend kind.
func (t *Tracker) Provider() Provider { return t.provider }

// State reports the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Completed reports whether the completion threshold has been crossed.
func (t *Tracker) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Bind attaches the concrete backend surface, applies the resume hint and
// starts the accrual and emission timers. Opaque embeds bind as a
// pass-through: no seek, no timers, no tracking.
func (t *Tracker) Bind(s Surface) error {
	if err := s.Bind(); err != nil {
		return err
	}

	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		s.Teardown()
		return nil
	}
	t.surface = s
	t.state = StateBound
	t.watched = t.hint.WatchedSeconds
	t.maxReached = t.hint.MaxReached

	if t.provider == OpaqueEmbed {
		t.mu.Unlock()
		return nil
	}

	if d, err := s.Duration(); err == nil && d > 0 {
		t.duration = d
	}

	// Resume never lands past the furthest verified point; a forged client
	// position cannot unlock anything.
	if t.hint.LastPosition > 0 {
		target := t.hint.LastPosition
		if t.maxReached > 0 && target > t.maxReached {
			target = t.maxReached
		}
		if err := s.SeekTo(target); err == nil {
			t.position = target
			t.resumeApplied = true
		}
	} else {
		t.resumeApplied = true
	}

	manual := t.opts.ManualTicks
	if !manual {
		t.stop = make(chan struct{})
	}
	t.mu.Unlock()

	if !manual {
		go t.tickLoop()
		go t.emitLoop()
	}
	return nil
}

// LateResume applies a hint that arrived after Bind (enrollment loaded late).
// One-shot: a no-op once any resume has been applied.
func (t *Tracker) LateResume(h ResumeHint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || t.resumeApplied || t.surface == nil || t.provider == OpaqueEmbed {
		return
	}
	h = sanitizeHint(h, t.duration)
	if h.MaxReached > t.maxReached {
		t.maxReached = h.MaxReached
	}
	if h.WatchedSeconds > t.watched {
		t.watched = h.WatchedSeconds
	}
	t.resumeApplied = true
	if h.LastPosition <= 0 {
		return
	}
	target := h.LastPosition
	if t.maxReached > 0 && target > t.maxReached {
		target = t.maxReached
	}
	if err := t.surface.SeekTo(target); err == nil {
		t.position = target
	}
}

func (t *Tracker) tickLoop() {
	ticker := time.NewTicker(t.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.Tick(t.opts.Clock())
		}
	}
}

func (t *Tracker) emitLoop() {
	ticker := time.NewTicker(t.opts.EmitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.EmitTick()
		}
	}
}

// Tick is the 1s accrual/poll callback. For the polling widget it samples
// the surface, extrapolating by wall clock when the query fails; for native
// backends accrual rides the timeupdate events instead and the tick is a
// no-op.
func (t *Tracker) Tick(now time.Time) {
	t.mu.Lock()
	if t.destroyed || t.provider != PollingWidget || t.state != StatePlaying {
		t.mu.Unlock()
		return
	}

	delta := t.tickDelta(now)

	if t.duration <= 0 {
		if d, err := t.surface.Duration(); err == nil && d > 0 {
			t.duration = d
		}
	}

	// Widget position query is best effort: a thrown/errored call is "no
	// sample this tick" and tracking degrades to wall-clock extrapolation.
	pos, err := t.surface.Position()
	if err == nil && pos > 0 {
		t.position = pos
	} else if plausible(delta, t.opts.MaxPlausibleDelta) {
		t.position += delta
	}

	// No anti-skip for the widget backend: scrubbing is not reliably
	// detectable there, a documented platform limitation.
	if t.position > t.maxReached {
		t.maxReached = t.position
	}

	if plausible(delta, t.opts.MaxPlausibleDelta) {
		t.watched += delta
	}
	t.lastTick = now

	t.checkCompletionLocked()
	t.mu.Unlock()
}

// EmitTick is the 10s emission callback, independent of the accrual tick so
// write volume stays bounded.
func (t *Tracker) EmitTick() {
	t.mu.Lock()
	if t.destroyed || t.provider == OpaqueEmbed {
		t.mu.Unlock()
		return
	}
	if t.state != StatePlaying && t.state != StatePaused {
		t.mu.Unlock()
		return
	}
	t.emitLocked()
	t.mu.Unlock()
}

// tickDelta returns seconds since the previous tick, 0 on the first one.
func (t *Tracker) tickDelta(now time.Time) float64 {
	if t.lastTick.IsZero() {
		return 0
	}
	return now.Sub(t.lastTick).Seconds()
}

// plausible guards watched-time against tab-sleep gaps: out-of-range deltas
// are discarded, not clamped.
func plausible(delta, maxDelta float64) bool {
	return delta > 0 && delta < maxDelta
}

// HandlePlay is a backend-native play signal.
func (t *Tracker) HandlePlay() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || t.surface == nil || t.state == StateEnded {
		return
	}
	t.state = StatePlaying
	t.lastTick = t.opts.Clock()
}

// HandlePause is a backend-native pause signal; it forces an emission so at
// most one cadence interval of progress can be lost.
func (t *Tracker) HandlePause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || t.surface == nil || t.state == StateEnded {
		return
	}
	t.state = StatePaused
	t.emitLocked()
}

// HandleSeeking applies the anti-skip policy for the native backend: a seek
// past maxReached + tolerance snaps back to maxReached.
func (t *Tracker) HandleSeeking(target float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || t.surface == nil || t.provider != NativeFile {
		return
	}
	if target > t.maxReached+t.opts.SeekTolerance {
		if err := t.surface.SeekTo(t.maxReached); err != nil {
			t.log.Warn("seek snap-back failed",
				zap.String("video", t.ref.ID), zap.Error(err))
			return
		}
		t.position = t.maxReached
		monitoring.SeekSnapbacks.Inc()
	}
}

// HandleTimeUpdate is the native backend's position report. It advances
// max-reached only through positions within tolerance of it (real playback),
// accrues watched time while playing, and re-checks completion.
func (t *Tracker) HandleTimeUpdate(pos float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || t.surface == nil || t.provider != NativeFile {
		return
	}
	now := t.opts.Clock()
	t.position = pos

	if pos <= t.maxReached+t.opts.SeekTolerance {
		t.maxReached = math.Max(t.maxReached, pos)
	}

	if t.state == StatePlaying && !t.lastTick.IsZero() {
		if delta := now.Sub(t.lastTick).Seconds(); plausible(delta, t.opts.MaxPlausibleDelta) {
			t.watched += delta
		}
	}
	t.lastTick = now

	if t.duration <= 0 {
		if d, err := t.surface.Duration(); err == nil && d > 0 {
			t.duration = d
		}
	}

	t.checkCompletionLocked()
}

// HandleWidgetState is the polling widget's coarse state callback. Playing
// is inferred from it, never assumed.
func (t *Tracker) HandleWidgetState(ws WidgetState) {
	t.mu.Lock()
	if t.destroyed || t.surface == nil || t.provider != PollingWidget {
		t.mu.Unlock()
		return
	}
	if pos, err := t.surface.Position(); err == nil && pos > 0 {
		t.position = pos
	}
	switch ws {
	case WidgetPlaying:
		t.state = StatePlaying
		t.lastTick = t.opts.Clock()
		t.mu.Unlock()
	case WidgetPaused:
		t.state = StatePaused
		t.emitLocked()
		t.mu.Unlock()
	case WidgetEnded:
		t.mu.Unlock()
		t.HandleEnded()
	default:
		t.mu.Unlock()
	}
}

// HandleEnded flushes a final snapshot and signals the host, which decides
// whether to auto-advance or mark the module complete.
func (t *Tracker) HandleEnded() {
	t.mu.Lock()
	if t.destroyed || t.surface == nil || t.state == StateEnded {
		t.mu.Unlock()
		return
	}
	t.state = StateEnded
	t.emitLocked()
	ended := t.cb.OnEnded
	t.mu.Unlock()

	if ended != nil {
		ended()
	}
}

// checkCompletionLocked crosses the threshold at most once; repeated
// crossings are no-ops. Completion never reverts.
func (t *Tracker) checkCompletionLocked() {
	if t.completed || t.duration <= 0 {
		return
	}
	if t.maxReached/t.duration < CompletionRatio {
		return
	}
	t.completed = true
	monitoring.VideoCompletions.Inc()
	// Completion bypasses the emission cadence.
	t.emitLocked()
	if t.cb.OnCompleted != nil {
		t.cb.OnCompleted()
	}
}

// emitLocked pushes the current snapshot to the host. Snapshots leave in
// non-decreasing maxReached order because maxReached is monotone and the
// mutex serializes emissions.
func (t *Tracker) emitLocked() {
	if t.cb.OnProgress == nil {
		return
	}
	t.cb.OnProgress(t.snapshotLocked())
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		ModuleID:          t.moduleID,
		VideoID:           t.ref.ID,
		WatchedSeconds:    t.watched,
		MaxReachedSeconds: t.maxReached,
		DurationSeconds:   t.duration,
		CurrentPosition:   t.position,
	}
}

// Snapshot returns the current progress triple.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Teardown cancels both timers synchronously and detaches the surface. Any
// timer callback that was already scheduled sees the destroyed flag and
// returns without touching state.
func (t *Tracker) Teardown() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	s := t.surface
	t.surface = nil
	t.state = StateIdle
	t.mu.Unlock()

	if s != nil {
		s.Teardown()
	}
}
