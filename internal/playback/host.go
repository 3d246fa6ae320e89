package playback

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// HostEvents are the UI-facing notifications of the playback host.
type HostEvents struct {
	// OnProgress mirrors every gateway-bound snapshot for the progress bar.
	OnProgress func(Snapshot)
	// OnVideoCompleted fires once per video crossing the threshold.
	OnVideoCompleted func(moduleID, videoID string)
	// OnModuleFinished fires when the last video of a module ends.
	OnModuleFinished func(moduleID string)
	// OnNotice surfaces non-blocking user messages (save failures).
	OnNotice func(msg string)
}

// ModuleCompleter marks a module visited/complete on the server. Used for
// modules with no playable video, which auto-complete on visit.
type ModuleCompleter func(moduleID string) error

// Host wires trackers to concrete playback surfaces and owns their
// lifecycle. At most one tracker is bound at a time; switching videos or
// modules tears the current one down before the next is constructed.
type Host struct {
	course    CourseView
	gateway   *Gateway
	factory   SurfaceFactory
	loader    *ScriptLoader
	completer ModuleCompleter
	opts      Options
	events    HostEvents
	log       *zap.Logger

	mu        sync.Mutex
	progress  ProgressMap
	tracker   *Tracker
	moduleID  string
	videoID   string
	videoIdx  int
	trackless bool // current video is an opaque embed or the widget script failed
}

func NewHost(course CourseView, progress ProgressMap, gateway *Gateway, factory SurfaceFactory, loader *ScriptLoader, completer ModuleCompleter, opts Options, events HostEvents, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	if progress == nil {
		progress = ProgressMap{}
	}
	return &Host{
		course:    course,
		progress:  progress,
		gateway:   gateway,
		factory:   factory,
		loader:    loader,
		completer: completer,
		opts:      opts,
		events:    events,
		log:       log,
	}
}

// Open mounts the resume target: last watched module and its last video, or
// the beginning of the course.
func (h *Host) Open(lastWatchedModule string) {
	h.mu.Lock()
	moduleID, videoID := ResumeTarget(h.course, lastWatchedModule, h.progress)
	h.mu.Unlock()
	if moduleID == "" {
		return
	}
	h.SwitchVideo(moduleID, videoID)
}

// SwitchModule opens the given module at its remembered or first video.
func (h *Host) SwitchModule(moduleID string) {
	h.mu.Lock()
	mod, ok := h.moduleView(moduleID)
	if !ok {
		h.mu.Unlock()
		return
	}
	videoID := ""
	if len(mod.Videos) > 0 {
		videoID = mod.Videos[0].ID
		if last := h.progress[moduleID].LastVideoID; last != "" {
			for _, ref := range mod.Videos {
				if ref.ID == last {
					videoID = last
					break
				}
			}
		}
	}
	h.mu.Unlock()
	h.SwitchVideo(moduleID, videoID)
}

// SwitchVideo tears down the current tracker and mounts a new one for the
// target. A module without playable videos mounts nothing and auto-completes
// the visit.
func (h *Host) SwitchVideo(moduleID, videoID string) {
	h.Unmount()

	h.mu.Lock()
	mod, ok := h.moduleView(moduleID)
	if !ok {
		h.mu.Unlock()
		return
	}
	h.moduleID = moduleID

	if len(mod.Videos) == 0 {
		h.videoID = ""
		h.trackless = true
		completer := h.completer
		h.mu.Unlock()
		if completer != nil {
			if err := completer(moduleID); err != nil {
				h.log.Warn("module visit completion failed",
					zap.String("module", moduleID), zap.Error(err))
			}
		}
		return
	}

	ref, idx := findVideo(mod.Videos, videoID)
	h.videoID = ref.ID
	h.videoIdx = idx
	hint := h.progress.HintFor(moduleID, ref.ID)

	tracker := NewTracker(moduleID, ref, hint, h.opts, Callbacks{
		OnProgress: h.reportProgress,
		OnCompleted: func() {
			if h.events.OnVideoCompleted != nil {
				h.events.OnVideoCompleted(moduleID, ref.ID)
			}
		},
		OnEnded: func() { h.videoEnded(moduleID) },
	}, h.log)
	h.tracker = tracker
	h.trackless = tracker.Provider() == OpaqueEmbed
	h.mu.Unlock()

	h.bind(tracker, ref)
}

// bind attaches the surface, going through the script loader for the
// polling widget so concurrent mounts cannot double-load the external API.
func (h *Host) bind(tracker *Tracker, ref VideoRef) {
	attach := func() {
		surface, err := h.factory(tracker.Provider(), ref)
		if err != nil {
			h.log.Warn("surface construction failed",
				zap.String("video", ref.ID), zap.Error(err))
			return
		}
		if err := tracker.Bind(surface); err != nil {
			h.log.Warn("surface bind failed",
				zap.String("video", ref.ID), zap.Error(err))
		}
	}

	if tracker.Provider() == PollingWidget && h.loader != nil {
		h.loader.Subscribe(func(err error) {
			if err != nil {
				// Script never loaded: the tracker stays Idle, the UI shows
				// an empty-state player, nothing crashes.
				h.mu.Lock()
				if h.tracker == tracker {
					h.trackless = true
				}
				h.mu.Unlock()
				return
			}
			h.mu.Lock()
			current := h.tracker == tracker
			h.mu.Unlock()
			if current {
				attach()
			}
		})
		return
	}
	attach()
}

// Tracked reports whether the currently mounted video has a progress
// contract; opaque embeds and failed widgets render without progress UI.
func (h *Host) Tracked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tracker != nil && !h.trackless
}

// Current returns the mounted (module, video) pair.
func (h *Host) Current() (moduleID, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.moduleID, h.videoID
}

// Tracker exposes the mounted tracker for the backend event plumbing.
func (h *Host) Tracker() *Tracker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tracker
}

// UpdateProgress replaces the cached enrollment progress after a refetch
// and applies a one-shot late resume to the mounted tracker.
func (h *Host) UpdateProgress(progress ProgressMap, lastWatchedModule string) {
	h.mu.Lock()
	if progress != nil {
		h.progress = progress
	}
	tracker := h.tracker
	hint := h.progress.HintFor(h.moduleID, h.videoID)
	h.mu.Unlock()

	if tracker != nil {
		tracker.LateResume(hint)
	}
}

// Unmount tears down the current tracker, cancelling its timers
// synchronously. In-flight gateway writes keep going; they are keyed and
// cannot clobber the next video's writes.
func (h *Host) Unmount() {
	h.mu.Lock()
	tracker := h.tracker
	h.tracker = nil
	h.trackless = false
	h.mu.Unlock()

	if tracker != nil {
		tracker.Teardown()
	}
}

// Flush is the page-unload hook: one best-effort write of the freshest
// snapshot.
func (h *Host) Flush(ctx context.Context) {
	if h.gateway != nil {
		h.gateway.Flush(ctx)
	}
}

func (h *Host) reportProgress(snap Snapshot) {
	if h.gateway != nil {
		h.gateway.Report(snap)
	}
	if h.events.OnProgress != nil {
		h.events.OnProgress(snap)
	}
	h.rememberLocal(snap)
}

// rememberLocal keeps the cached progress map roughly current between
// enrollment refetches so resume hints after a quick video switch are not
// stale.
func (h *Host) rememberLocal(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mp := h.progress[snap.ModuleID]
	if mp.Videos == nil {
		mp.Videos = map[string]VideoProgress{}
	}
	mp.Videos[snap.VideoID] = MergeSnapshot(mp.Videos[snap.VideoID], snap)
	mp.LastVideoID = snap.VideoID
	h.progress[snap.ModuleID] = mp
}

// videoEnded auto-advances within the module or reports the module
// finished; course-level completion is the server's call.
func (h *Host) videoEnded(moduleID string) {
	h.mu.Lock()
	mod, ok := h.moduleView(moduleID)
	if !ok || moduleID != h.moduleID {
		h.mu.Unlock()
		return
	}
	next, hasNext := NextVideo(mod.Videos, h.videoIdx)
	h.mu.Unlock()

	if hasNext {
		h.SwitchVideo(moduleID, next.ID)
		return
	}
	if h.events.OnModuleFinished != nil {
		h.events.OnModuleFinished(moduleID)
	}
}

func (h *Host) moduleView(moduleID string) (ModuleView, bool) {
	for _, mod := range h.course.Modules {
		if mod.ID == moduleID {
			return mod, true
		}
	}
	return ModuleView{}, false
}

func findVideo(videos []VideoRef, videoID string) (VideoRef, int) {
	for i, ref := range videos {
		if ref.ID == videoID {
			return ref, i
		}
	}
	return videos[0], 0
}
