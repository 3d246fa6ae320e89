// Package playback implements the video progress tracking and resume engine:
// provider classification, the per-video tracker state machine, pure progress
// aggregation and the debounced persistence gateway. The surrounding service
// reuses the aggregation functions when it recomputes enrollment percentages.
package playback

// LegacyVideoID is the synthetic video id used for modules that predate the
// multi-video catalog and carry a single embedded videoUrl field.
const LegacyVideoID = "legacy-0"

// VideoRef is the catalog's description of one playable video. The engine
// only reads it.
type VideoRef struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	Order           int     `json:"order"`
	DurationSeconds float64 `json:"duration"`
}

// VideoProgress is a student's saved progress for one video.
//
// MaxReachedSeconds is the furthest point verified through real forward
// playback; it alone drives completion and anti-skip. LastPositionSeconds is
// only a resume hint and may trail behind after a re-watch.
type VideoProgress struct {
	WatchedSeconds      float64 `json:"watchedSeconds"`
	MaxReachedSeconds   float64 `json:"maxReachedSeconds"`
	DurationSeconds     float64 `json:"duration"`
	LastPositionSeconds float64 `json:"lastPosition"`
	Completed           bool    `json:"completed"`
}

// ModuleProgress groups the per-video progress of one course module.
type ModuleProgress struct {
	Videos      map[string]VideoProgress `json:"videos"`
	Completed   bool                     `json:"completed"`
	LastVideoID string                   `json:"lastVideoId,omitempty"`
}

// ProgressMap is the enrollment's moduleProgress payload, keyed by module id.
type ProgressMap map[string]ModuleProgress

// Snapshot is one progress emission from a tracker, keyed so writes for
// different videos never clobber each other.
type Snapshot struct {
	ModuleID          string  `json:"moduleId"`
	VideoID           string  `json:"videoId"`
	WatchedSeconds    float64 `json:"watchedSeconds"`
	MaxReachedSeconds float64 `json:"maxReachedSeconds"`
	DurationSeconds   float64 `json:"duration"`
	CurrentPosition   float64 `json:"lastPosition"`
}

// ResumeHint seeds a freshly bound tracker from server state.
type ResumeHint struct {
	LastPosition   float64
	MaxReached     float64
	WatchedSeconds float64
}

// HintFor extracts the resume hint for one video, zero when nothing is saved.
func (m ProgressMap) HintFor(moduleID, videoID string) ResumeHint {
	mp, ok := m[moduleID]
	if !ok {
		return ResumeHint{}
	}
	vp, ok := mp.Videos[videoID]
	if !ok {
		return ResumeHint{}
	}
	return ResumeHint{
		LastPosition:   vp.LastPositionSeconds,
		MaxReached:     vp.MaxReachedSeconds,
		WatchedSeconds: vp.WatchedSeconds,
	}
}
