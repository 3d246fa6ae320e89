package playback

import "testing"

func twoModuleCourse() CourseView {
	return CourseView{
		ID: "c1",
		Modules: []ModuleView{
			{ID: "m1", Videos: []VideoRef{
				{ID: "v1", Order: 0, DurationSeconds: 100},
				{ID: "v2", Order: 1, DurationSeconds: 200},
			}},
			{ID: "m2", Videos: []VideoRef{
				{ID: "v3", Order: 0, DurationSeconds: 100},
			}},
		},
	}
}

func TestModuleCompletionPercent(t *testing.T) {
	t.Run("zero durations yield zero", func(t *testing.T) {
		mp := ModuleProgress{Videos: map[string]VideoProgress{
			"v1": {MaxReachedSeconds: 50},
			"v2": {MaxReachedSeconds: 10},
		}}
		if got := ModuleCompletionPercent(mp); got != 0 {
			t.Fatalf("percent = %d, want 0 for unknown durations", got)
		}
	})

	t.Run("rolls up across videos", func(t *testing.T) {
		mp := ModuleProgress{Videos: map[string]VideoProgress{
			"v1": {MaxReachedSeconds: 100, DurationSeconds: 100},
			"v2": {MaxReachedSeconds: 50, DurationSeconds: 200},
		}}
		if got := ModuleCompletionPercent(mp); got != 50 {
			t.Fatalf("percent = %d, want 50", got)
		}
	})

	t.Run("max reached is capped at duration", func(t *testing.T) {
		mp := ModuleProgress{Videos: map[string]VideoProgress{
			"v1": {MaxReachedSeconds: 130, DurationSeconds: 100},
		}}
		if got := ModuleCompletionPercent(mp); got != 100 {
			t.Fatalf("percent = %d, want 100 capped", got)
		}
	})
}

func TestCourseProgressPercent(t *testing.T) {
	course := twoModuleCourse()

	t.Run("empty progress is zero", func(t *testing.T) {
		if got := CourseProgressPercent(course, ProgressMap{}); got != 0 {
			t.Fatalf("percent = %d, want 0", got)
		}
	})

	t.Run("weighted by duration", func(t *testing.T) {
		progress := ProgressMap{
			"m1": {Videos: map[string]VideoProgress{
				"v1": {MaxReachedSeconds: 100},
				"v2": {MaxReachedSeconds: 100},
			}},
		}
		// 200 of 400 known seconds.
		if got := CourseProgressPercent(course, progress); got != 50 {
			t.Fatalf("percent = %d, want 50", got)
		}
	})

	t.Run("course with no playable seconds is zero", func(t *testing.T) {
		empty := CourseView{ID: "c2", Modules: []ModuleView{{ID: "m1"}}}
		if got := CourseProgressPercent(empty, ProgressMap{}); got != 0 {
			t.Fatalf("percent = %d, want 0 without division", got)
		}
	})
}

func TestIsModuleComplete(t *testing.T) {
	videos := []VideoRef{{ID: "v1"}, {ID: "v2"}}

	t.Run("all completed", func(t *testing.T) {
		mp := ModuleProgress{Videos: map[string]VideoProgress{
			"v1": {Completed: true},
			"v2": {Completed: true},
		}}
		if !IsModuleComplete(videos, mp) {
			t.Fatal("want complete")
		}
	})

	t.Run("one missing", func(t *testing.T) {
		mp := ModuleProgress{Videos: map[string]VideoProgress{
			"v1": {Completed: true},
		}}
		if IsModuleComplete(videos, mp) {
			t.Fatal("want incomplete")
		}
	})

	t.Run("zero videos is vacuously complete", func(t *testing.T) {
		if !IsModuleComplete(nil, ModuleProgress{}) {
			t.Fatal("want vacuous completion")
		}
	})
}

func TestResumeTarget(t *testing.T) {
	course := twoModuleCourse()

	t.Run("fresh enrollment lands on the first video", func(t *testing.T) {
		moduleID, videoID := ResumeTarget(course, "", ProgressMap{})
		if moduleID != "m1" || videoID != "v1" {
			t.Fatalf("got (%s, %s), want (m1, v1)", moduleID, videoID)
		}
	})

	t.Run("returns the last watched module and video", func(t *testing.T) {
		progress := ProgressMap{"m2": {LastVideoID: "v3"}}
		moduleID, videoID := ResumeTarget(course, "m2", progress)
		if moduleID != "m2" || videoID != "v3" {
			t.Fatalf("got (%s, %s), want (m2, v3)", moduleID, videoID)
		}
	})

	t.Run("deleted module falls back to the first", func(t *testing.T) {
		moduleID, videoID := ResumeTarget(course, "gone", ProgressMap{})
		if moduleID != "m1" || videoID != "v1" {
			t.Fatalf("got (%s, %s), want (m1, v1)", moduleID, videoID)
		}
	})

	t.Run("stale last video falls back to the first video", func(t *testing.T) {
		progress := ProgressMap{"m1": {LastVideoID: "removed"}}
		moduleID, videoID := ResumeTarget(course, "m1", progress)
		if moduleID != "m1" || videoID != "v1" {
			t.Fatalf("got (%s, %s), want (m1, v1)", moduleID, videoID)
		}
	})

	t.Run("empty course", func(t *testing.T) {
		moduleID, videoID := ResumeTarget(CourseView{}, "m1", ProgressMap{})
		if moduleID != "" || videoID != "" {
			t.Fatalf("got (%s, %s), want empty", moduleID, videoID)
		}
	})
}

func TestNextVideo(t *testing.T) {
	videos := []VideoRef{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}}

	if next, ok := NextVideo(videos, 0); !ok || next.ID != "v2" {
		t.Fatalf("NextVideo(0) = %v %v", next, ok)
	}
	if _, ok := NextVideo(videos, 2); ok {
		t.Fatal("expected end of module")
	}
	if _, ok := NextVideo(videos, -2); ok {
		t.Fatal("expected out-of-range index rejected")
	}
}

func TestLegacyVideoRef(t *testing.T) {
	ref := LegacyVideoRef("https://cdn.example.com/old.mp4", "45:00", "Intro")
	if ref.ID != LegacyVideoID {
		t.Fatalf("id = %q, want %q", ref.ID, LegacyVideoID)
	}
	if ref.DurationSeconds != 2700 {
		t.Fatalf("duration = %v, want 2700", ref.DurationSeconds)
	}
	if ref.Order != 0 || ref.Title != "Intro" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestMergeSnapshot(t *testing.T) {
	t.Run("monotonic fields never shrink", func(t *testing.T) {
		vp := VideoProgress{WatchedSeconds: 100, MaxReachedSeconds: 120, DurationSeconds: 300}
		got := MergeSnapshot(vp, Snapshot{WatchedSeconds: 50, MaxReachedSeconds: 80, CurrentPosition: 40})
		if got.WatchedSeconds != 100 || got.MaxReachedSeconds != 120 {
			t.Fatalf("shrank: %+v", got)
		}
		if got.LastPositionSeconds != 40 {
			t.Fatalf("lastPosition = %v, want 40 (free to move back)", got.LastPositionSeconds)
		}
	})

	t.Run("position is clamped to duration", func(t *testing.T) {
		vp := VideoProgress{DurationSeconds: 100}
		got := MergeSnapshot(vp, Snapshot{CurrentPosition: 400})
		if got.LastPositionSeconds != 100 {
			t.Fatalf("lastPosition = %v, want 100", got.LastPositionSeconds)
		}
		got = MergeSnapshot(vp, Snapshot{CurrentPosition: -3})
		if got.LastPositionSeconds != 0 {
			t.Fatalf("lastPosition = %v, want 0", got.LastPositionSeconds)
		}
	})

	t.Run("completion is reached and sticky", func(t *testing.T) {
		vp := VideoProgress{}
		got := MergeSnapshot(vp, Snapshot{MaxReachedSeconds: 95, DurationSeconds: 100})
		if !got.Completed {
			t.Fatal("want completed at the threshold")
		}
		got = MergeSnapshot(got, Snapshot{MaxReachedSeconds: 10, DurationSeconds: 100})
		if !got.Completed {
			t.Fatal("completion must not revert")
		}
	})

	t.Run("duration only updates when known", func(t *testing.T) {
		vp := VideoProgress{DurationSeconds: 250}
		got := MergeSnapshot(vp, Snapshot{})
		if got.DurationSeconds != 250 {
			t.Fatalf("duration = %v, want 250 preserved", got.DurationSeconds)
		}
	})
}
