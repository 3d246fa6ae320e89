package playback

import "math"

// The aggregator is pure and synchronous: the host and the enrollment
// service both roll up the same numbers, so the rollup lives here, away
// from any I/O.

// ModuleView is the catalog's description of one module as the aggregator
// needs it.
type ModuleView struct {
	ID     string
	Videos []VideoRef
}

// CourseView is the ordered module list of one course.
type CourseView struct {
	ID      string
	Modules []ModuleView
}

// LegacyVideoRef synthesizes the implicit single video of a legacy module
// from its embedded URL and duration string.
func LegacyVideoRef(videoURL, videoDuration, title string) VideoRef {
	return VideoRef{
		ID:              LegacyVideoID,
		URL:             videoURL,
		Title:           title,
		Order:           0,
		DurationSeconds: ParseDuration(videoDuration),
	}
}

// ModuleCompletionPercent rolls one module's videos into 0..100. A module
// whose total known duration is zero yields 0.
func ModuleCompletionPercent(mp ModuleProgress) int {
	var reached, total float64
	for _, vp := range mp.Videos {
		if vp.DurationSeconds <= 0 {
			continue
		}
		total += vp.DurationSeconds
		reached += math.Min(vp.MaxReachedSeconds, vp.DurationSeconds)
	}
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * reached / total))
}

// CourseProgressPercent rolls every video of every module into 0..100.
// Only videos with known duration enter the denominator, so a zero-duration
// module contributes 0 without inflating anything.
func CourseProgressPercent(course CourseView, progress ProgressMap) int {
	var reached, total float64
	for _, mod := range course.Modules {
		mp := progress[mod.ID]
		for _, ref := range mod.Videos {
			if ref.DurationSeconds <= 0 {
				continue
			}
			total += ref.DurationSeconds
			if vp, ok := mp.Videos[ref.ID]; ok {
				reached += math.Min(vp.MaxReachedSeconds, ref.DurationSeconds)
			}
		}
	}
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * reached / total))
}

// IsModuleComplete reports whether every catalog video of the module is
// completed. A module with zero playable videos is vacuously complete; the
// host marks the visit through the complete-module call.
func IsModuleComplete(videos []VideoRef, mp ModuleProgress) bool {
	for _, ref := range videos {
		vp, ok := mp.Videos[ref.ID]
		if !ok || !vp.Completed {
			return false
		}
	}
	return true
}

// ResumeTarget decides which (module, video) to open when the course is
// reopened: the enrollment's last watched module when it still exists, else
// the first module; within it the module's last video when present, else
// the first.
func ResumeTarget(course CourseView, lastWatchedModule string, progress ProgressMap) (moduleID, videoID string) {
	if len(course.Modules) == 0 {
		return "", ""
	}

	target := course.Modules[0]
	if lastWatchedModule != "" {
		for _, mod := range course.Modules {
			if mod.ID == lastWatchedModule {
				target = mod
				break
			}
		}
	}

	moduleID = target.ID
	if len(target.Videos) == 0 {
		return moduleID, ""
	}

	if last := progress[target.ID].LastVideoID; last != "" {
		for _, ref := range target.Videos {
			if ref.ID == last {
				return moduleID, last
			}
		}
	}
	return moduleID, target.Videos[0].ID
}

// MergeSnapshot folds one tracker emission into saved progress. Watched and
// max-reached only ever grow, completion is sticky, and the resume position
// follows the snapshot freely so re-watches still resume where the student
// left off.
func MergeSnapshot(vp VideoProgress, snap Snapshot) VideoProgress {
	vp.WatchedSeconds = math.Max(vp.WatchedSeconds, snap.WatchedSeconds)
	vp.MaxReachedSeconds = math.Max(vp.MaxReachedSeconds, snap.MaxReachedSeconds)
	if snap.DurationSeconds > 0 {
		vp.DurationSeconds = snap.DurationSeconds
	}
	pos := snap.CurrentPosition
	if pos < 0 {
		pos = 0
	}
	if vp.DurationSeconds > 0 && pos > vp.DurationSeconds {
		pos = vp.DurationSeconds
	}
	vp.LastPositionSeconds = pos
	if !vp.Completed && vp.DurationSeconds > 0 &&
		vp.MaxReachedSeconds/vp.DurationSeconds >= CompletionRatio {
		vp.Completed = true
	}
	return vp
}

// NextVideo returns the video after currentIndex, false at the end of the
// module. End-of-module only means "module finished": course-level
// completion stays with the enrollment's authoritative percentage.
func NextVideo(videos []VideoRef, currentIndex int) (VideoRef, bool) {
	next := currentIndex + 1
	if next < 0 || next >= len(videos) {
		return VideoRef{}, false
	}
	return videos[next], true
}
