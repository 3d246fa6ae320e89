package model

import (
	"sort"

	"cursoteca_backend/internal/playback"
)

// swagger:model
type Course struct {
	UUIDBase
	TeacherID string         `gorm:"index;type:varchar(36)" json:"teacherId"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Slug      string         `gorm:"size:255;uniqueIndex" json:"slug"`
	Category  string         `gorm:"size:100" json:"category"`
	Summary   string         `gorm:"type:text" json:"summary"`
	Price     float64        `gorm:"default:0" json:"price"`
	HasTest   bool           `gorm:"default:false" json:"hasTest"`
	Modules   []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule is one lesson block of a course. Legacy modules predate the
// multi-video catalog and carry a single embedded VideoURL/VideoDuration
// pair instead of Videos rows.
// swagger:model
type CourseModule struct {
	UUIDBase
	CourseID      string        `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Number        int           `gorm:"default:0" json:"number"`
	Title         string        `gorm:"size:255;not null" json:"title"`
	Description   string        `gorm:"type:text" json:"description"`
	VideoURL      string        `gorm:"size:1024" json:"videoUrl,omitempty"`
	VideoDuration string        `gorm:"size:32" json:"videoDuration,omitempty"`
	IsFree        bool          `gorm:"default:false" json:"isFree"`
	Videos        []ModuleVideo `gorm:"foreignKey:ModuleID" json:"videos"`
	Materials     []Material    `gorm:"foreignKey:ModuleID" json:"materials"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// swagger:model
type ModuleVideo struct {
	UUIDBase
	ModuleID        string  `gorm:"index;type:varchar(36);not null" json:"moduleId"`
	URL             string  `gorm:"size:1024;not null" json:"url"`
	Title           string  `gorm:"size:255" json:"title"`
	Order           int     `gorm:"column:sort_order;default:0" json:"order"`
	DurationSeconds float64 `gorm:"default:0" json:"duration"`
}

func (ModuleVideo) TableName() string {
	return "module_videos"
}

// swagger:model
type Material struct {
	UUIDBase
	ModuleID string `gorm:"index;type:varchar(36);not null" json:"moduleId"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Type     string `gorm:"size:16" json:"type"`
	Size     string `gorm:"size:32" json:"size"`
	FileURL  string `gorm:"size:1024" json:"fileUrl,omitempty"`
}

func (Material) TableName() string {
	return "materials"
}

// VideoRefs returns the module's playable videos in order, synthesizing the
// implicit legacy-0 video for legacy modules so every consumer sees one
// uniform list.
func (m *CourseModule) VideoRefs() []playback.VideoRef {
	if len(m.Videos) == 0 {
		if m.VideoURL == "" {
			return nil
		}
		return []playback.VideoRef{playback.LegacyVideoRef(m.VideoURL, m.VideoDuration, m.Title)}
	}

	refs := make([]playback.VideoRef, 0, len(m.Videos))
	for _, v := range m.Videos {
		refs = append(refs, playback.VideoRef{
			ID:              v.ID,
			URL:             v.URL,
			Title:           v.Title,
			Order:           v.Order,
			DurationSeconds: v.DurationSeconds,
		})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Order < refs[j].Order })
	return refs
}

// View converts a course with preloaded modules into the aggregator's
// catalog view.
func (c *Course) View() playback.CourseView {
	view := playback.CourseView{ID: c.ID}
	mods := make([]CourseModule, len(c.Modules))
	copy(mods, c.Modules)
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Number < mods[j].Number })
	for i := range mods {
		view.Modules = append(view.Modules, playback.ModuleView{
			ID:     mods[i].ID,
			Videos: mods[i].VideoRefs(),
		})
	}
	return view
}
