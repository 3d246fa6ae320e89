package model

import (
	"time"

	"cursoteca_backend/internal/playback"

	"gorm.io/datatypes"
)

// Enrollment is a student's record in one course. ModuleProgress is the
// playback engine's persisted state; Progress is the server-recomputed
// course percentage and the single authoritative number the UI shows.
// swagger:model
type Enrollment struct {
	UUIDBase
	CourseID          string                                      `gorm:"index:idx_student_course,unique;type:varchar(36);not null" json:"courseId"`
	StudentID         string                                      `gorm:"index:idx_student_course,unique;type:varchar(36);not null" json:"studentId"`
	Progress          int                                         `gorm:"default:0" json:"progress"`
	CompletedModules  datatypes.JSONSlice[string]                 `json:"completedModules"`
	ModuleProgress    datatypes.JSONType[playback.ProgressMap]    `json:"moduleProgress"`
	LastWatchedModule string                                      `gorm:"type:varchar(36)" json:"lastWatchedModule,omitempty"`
	EnrolledAt        time.Time                                   `json:"enrolledAt"`
	TestPassed        bool                                        `gorm:"default:false" json:"testPassed"`
	TestScore         int                                         `gorm:"default:0" json:"testScore,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// ProgressData returns the decoded module progress map, never nil.
func (e *Enrollment) ProgressData() playback.ProgressMap {
	data := e.ModuleProgress.Data()
	if data == nil {
		return playback.ProgressMap{}
	}
	return data
}

// SetProgressData replaces the stored module progress map.
func (e *Enrollment) SetProgressData(pm playback.ProgressMap) {
	e.ModuleProgress = datatypes.NewJSONType(pm)
}

// HasCompletedModule reports membership in the denormalized completed list.
func (e *Enrollment) HasCompletedModule(moduleID string) bool {
	for _, id := range e.CompletedModules {
		if id == moduleID {
			return true
		}
	}
	return false
}
