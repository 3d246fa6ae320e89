package playback

import (
	"errors"
	"sync"
	"testing"
)

type hostFixture struct {
	host      *Host
	gateway   *Gateway
	saver     *blockingSaver
	surfaces  map[string]*fakeSurface
	mu        sync.Mutex
	completed []string
}

func hostCourse() CourseView {
	return CourseView{
		ID: "c1",
		Modules: []ModuleView{
			{ID: "m1", Videos: []VideoRef{
				{ID: "v1", URL: "https://cdn.example.com/a.mp4", Order: 0, DurationSeconds: 100},
				{ID: "v2", URL: "https://cdn.example.com/b.mp4", Order: 1, DurationSeconds: 200},
			}},
			{ID: "m2"},
			{ID: "m3", Videos: []VideoRef{
				{ID: "v3", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Order: 0, DurationSeconds: 300},
			}},
		},
	}
}

func newHostFixture(t *testing.T, progress ProgressMap, loader *ScriptLoader, events HostEvents) *hostFixture {
	t.Helper()
	f := &hostFixture{
		saver:    &blockingSaver{},
		surfaces: map[string]*fakeSurface{},
	}
	factory := func(p Provider, ref VideoRef) (Surface, error) {
		surf := &fakeSurface{duration: ref.DurationSeconds}
		f.mu.Lock()
		f.surfaces[ref.ID] = surf
		f.mu.Unlock()
		return surf, nil
	}
	completer := func(moduleID string) error {
		f.mu.Lock()
		f.completed = append(f.completed, moduleID)
		f.mu.Unlock()
		return nil
	}
	f.gateway = NewGateway("c1", f.saver, GatewayOptions{}, nil)
	f.host = NewHost(hostCourse(), progress, f.gateway, factory, loader, completer, Options{ManualTicks: true}, events, nil)
	return f
}

func (f *hostFixture) surface(videoID string) *fakeSurface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.surfaces[videoID]
}

func TestHostOpenResumes(t *testing.T) {
	progress := ProgressMap{
		"m1": {
			LastVideoID: "v2",
			Videos: map[string]VideoProgress{
				"v2": {LastPositionSeconds: 42, MaxReachedSeconds: 60},
			},
		},
	}
	f := newHostFixture(t, progress, nil, HostEvents{})
	f.host.Open("m1")
	defer f.host.Unmount()

	moduleID, videoID := f.host.Current()
	if moduleID != "m1" || videoID != "v2" {
		t.Fatalf("current = (%s, %s), want (m1, v2)", moduleID, videoID)
	}
	if !f.host.Tracked() {
		t.Fatal("native video must be tracked")
	}
	seek, ok := f.surface("v2").lastSeek()
	if !ok || seek != 42 {
		t.Fatalf("resume seek = %v (%v), want 42", seek, ok)
	}
}

func TestHostSwitchVideoTeardown(t *testing.T) {
	f := newHostFixture(t, nil, nil, HostEvents{})
	f.host.Open("")
	first := f.host.Tracker()

	f.host.SwitchVideo("m1", "v2")
	defer f.host.Unmount()

	if !f.surface("v1").torn {
		t.Fatal("previous surface must be torn down before the next mount")
	}
	if f.host.Tracker() == first {
		t.Fatal("tracker must be recreated per mount")
	}
	if _, videoID := f.host.Current(); videoID != "v2" {
		t.Fatalf("current video = %s, want v2", videoID)
	}
}

func TestHostZeroVideoModuleAutoCompletes(t *testing.T) {
	f := newHostFixture(t, nil, nil, HostEvents{})
	f.host.SwitchModule("m2")
	defer f.host.Unmount()

	f.mu.Lock()
	completed := append([]string(nil), f.completed...)
	f.mu.Unlock()
	if len(completed) != 1 || completed[0] != "m2" {
		t.Fatalf("completed = %v, want [m2]", completed)
	}
	if f.host.Tracked() {
		t.Fatal("zero-video module must not be tracked")
	}
}

func TestHostAutoAdvance(t *testing.T) {
	var finished []string
	f := newHostFixture(t, nil, nil, HostEvents{
		OnModuleFinished: func(moduleID string) { finished = append(finished, moduleID) },
	})
	f.host.Open("")
	defer f.host.Unmount()

	// Ending v1 advances to v2 inside m1.
	f.host.Tracker().HandlePlay()
	f.host.Tracker().HandleEnded()
	if _, videoID := f.host.Current(); videoID != "v2" {
		t.Fatalf("current video = %s, want auto-advance to v2", videoID)
	}
	if len(finished) != 0 {
		t.Fatalf("module finished fired early: %v", finished)
	}

	// Ending the last video reports the module finished instead.
	f.host.Tracker().HandlePlay()
	f.host.Tracker().HandleEnded()
	if len(finished) != 1 || finished[0] != "m1" {
		t.Fatalf("finished = %v, want [m1]", finished)
	}
}

func TestHostWidgetGoesThroughLoader(t *testing.T) {
	t.Run("ready script binds the widget", func(t *testing.T) {
		loader := NewScriptLoader(func() error { return nil }, nil)
		done := make(chan struct{})
		loader.Subscribe(func(error) { close(done) })
		<-done

		// Settled loaders call back synchronously, so the mount completes
		// before SwitchVideo returns.
		f := newHostFixture(t, nil, loader, HostEvents{})
		f.host.SwitchVideo("m3", "v3")
		defer f.host.Unmount()

		if !f.host.Tracked() {
			t.Fatal("widget video must be tracked once the script is ready")
		}
		if f.host.Tracker().State() != StateBound {
			t.Fatalf("state = %v, want bound", f.host.Tracker().State())
		}
	})

	t.Run("failed script leaves the player inert", func(t *testing.T) {
		loader := NewScriptLoader(func() error { return errors.New("blocked") }, nil)
		done := make(chan struct{})
		loader.Subscribe(func(error) { close(done) })
		<-done

		f := newHostFixture(t, nil, loader, HostEvents{})
		f.host.SwitchVideo("m3", "v3")
		defer f.host.Unmount()

		if f.host.Tracked() {
			t.Fatal("failed script must leave the video untracked")
		}
		if f.surface("v3") != nil {
			t.Fatal("no surface may be constructed when the script failed")
		}
	})
}

func TestHostProgressFlowsToGateway(t *testing.T) {
	var snaps []Snapshot
	f := newHostFixture(t, nil, nil, HostEvents{
		OnProgress: func(s Snapshot) { snaps = append(snaps, s) },
	})
	f.host.Open("")
	defer f.host.Unmount()

	f.host.Tracker().HandlePlay()
	f.host.Tracker().HandlePause()
	f.gateway.Wait()

	if len(snaps) != 1 {
		t.Fatalf("UI snapshots = %d, want 1", len(snaps))
	}
	if writes := f.saver.recorded(); len(writes) != 1 {
		t.Fatalf("gateway writes = %d, want 1", len(writes))
	}
}

func TestHostRemembersLocalProgress(t *testing.T) {
	f := newHostFixture(t, nil, nil, HostEvents{})
	f.host.Open("")

	tr := f.host.Tracker()
	tr.HandlePlay()
	tr.HandleSeeking(0)
	tr.HandleTimeUpdate(1)
	tr.HandlePause()

	// Switching away and back resumes from the locally cached hint without
	// waiting for a server refetch.
	f.host.SwitchVideo("m1", "v2")
	f.host.SwitchVideo("m1", "v1")
	defer f.host.Unmount()

	seek, ok := f.surface("v1").lastSeek()
	if !ok || seek != 1 {
		t.Fatalf("resume seek = %v (%v), want 1 from local cache", seek, ok)
	}
}

func TestHostLateResume(t *testing.T) {
	f := newHostFixture(t, nil, nil, HostEvents{})
	f.host.Open("")
	defer f.host.Unmount()

	// v1 mounted with no hint, which counts as an applied resume. The
	// refetched enrollment must not yank playback afterwards.
	f.host.UpdateProgress(ProgressMap{
		"m1": {Videos: map[string]VideoProgress{
			"v1": {LastPositionSeconds: 50, MaxReachedSeconds: 80},
		}},
	}, "m1")

	if _, ok := f.surface("v1").lastSeek(); ok {
		t.Fatal("late resume must not fire once a resume was already applied")
	}
}
