package model

import (
	"testing"

	"cursoteca_backend/internal/playback"
)

func TestVideoRefsLegacySynthesis(t *testing.T) {
	t.Run("legacy module yields the synthetic video", func(t *testing.T) {
		mod := CourseModule{
			Title:         "Introducción",
			VideoURL:      "https://cdn.example.com/old.mp4",
			VideoDuration: "45:00",
		}
		refs := mod.VideoRefs()
		if len(refs) != 1 {
			t.Fatalf("refs = %d, want 1", len(refs))
		}
		if refs[0].ID != playback.LegacyVideoID {
			t.Fatalf("id = %q, want %q", refs[0].ID, playback.LegacyVideoID)
		}
		if refs[0].DurationSeconds != 2700 {
			t.Fatalf("duration = %v, want 2700", refs[0].DurationSeconds)
		}
	})

	t.Run("module with rows ignores the legacy fields", func(t *testing.T) {
		mod := CourseModule{
			VideoURL: "https://cdn.example.com/old.mp4",
			Videos: []ModuleVideo{
				{URL: "https://cdn.example.com/b.mp4", Order: 1},
				{URL: "https://cdn.example.com/a.mp4", Order: 0},
			},
		}
		mod.Videos[0].ID = "vb"
		mod.Videos[1].ID = "va"

		refs := mod.VideoRefs()
		if len(refs) != 2 {
			t.Fatalf("refs = %d, want 2", len(refs))
		}
		if refs[0].ID != "va" || refs[1].ID != "vb" {
			t.Fatalf("order = [%s %s], want [va vb]", refs[0].ID, refs[1].ID)
		}
	})

	t.Run("module with nothing playable yields nil", func(t *testing.T) {
		mod := CourseModule{Title: "Lectura"}
		if refs := mod.VideoRefs(); refs != nil {
			t.Fatalf("refs = %v, want nil", refs)
		}
	})
}

func TestEnrollmentProgressData(t *testing.T) {
	var e Enrollment
	if pm := e.ProgressData(); pm == nil {
		t.Fatal("ProgressData must never return nil")
	}

	pm := playback.ProgressMap{
		"m1": {Completed: true, LastVideoID: "v1"},
	}
	e.SetProgressData(pm)
	got := e.ProgressData()
	if !got["m1"].Completed || got["m1"].LastVideoID != "v1" {
		t.Fatalf("round trip lost data: %+v", got)
	}

	e.CompletedModules = append(e.CompletedModules, "m1")
	if !e.HasCompletedModule("m1") {
		t.Fatal("want m1 completed")
	}
	if e.HasCompletedModule("m2") {
		t.Fatal("m2 must not be completed")
	}
}
