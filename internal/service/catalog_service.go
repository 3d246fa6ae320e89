package service

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cursoteca_backend/internal/config"
	"cursoteca_backend/internal/model"
	"cursoteca_backend/internal/playback"
	"cursoteca_backend/internal/repository"
	"cursoteca_backend/internal/util"
	"cursoteca_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	courseCacheKeyPrefix = "course:"
	courseCacheTTL       = 5 * time.Minute
)

// CatalogService serves course and module reads and teacher-side video
// uploads. Course detail is cached in redis and invalidated on any write
// that changes the module list.
type CatalogService struct {
	CourseRepo *repository.CourseRepository
	ModuleRepo *repository.ModuleRepository
	Storage    *StorageService
	Cfg        *config.Config
	Redis      *redis.Client
}

func NewCatalogService(courseRepo *repository.CourseRepository, moduleRepo *repository.ModuleRepository, storage *StorageService, cfg *config.Config, rdb *redis.Client) *CatalogService {
	return &CatalogService{
		CourseRepo: courseRepo,
		ModuleRepo: moduleRepo,
		Storage:    storage,
		Cfg:        cfg,
		Redis:      rdb,
	}
}

// VideoView is the catalog's playable-video response shape, with the
// provider classification and embed URL resolved server-side so every
// client renders the same surface for the same URL.
type VideoView struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	EmbedURL string  `json:"embedUrl,omitempty"`
	Title    string  `json:"title"`
	Order    int     `json:"order"`
	Duration float64 `json:"duration"`
	Provider string  `json:"provider"`
}

// ModuleView is one module of the course detail response. Legacy modules
// surface their synthesized single video here like any other.
type ModuleView struct {
	ID          string           `json:"id"`
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	IsFree      bool             `json:"isFree"`
	Videos      []VideoView      `json:"videos"`
	Materials   []model.Material `json:"materials"`
}

// CourseDetail is the full course response with modules expanded.
type CourseDetail struct {
	Course  model.Course `json:"course"`
	Modules []ModuleView `json:"modules"`
}

func (s *CatalogService) ListCourses(page, limit int) ([]model.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.CourseRepo.List(page, limit)
}

// GetCourse returns the cached course detail, going to the database on a
// miss. Cache errors degrade to a direct read.
func (s *CatalogService) GetCourse(ctx context.Context, courseID string) (*CourseDetail, error) {
	cacheKey := courseCacheKeyPrefix + courseID
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var detail CourseDetail
			if err := json.Unmarshal([]byte(cached), &detail); err == nil {
				return &detail, nil
			}
		}
	}

	course, err := s.CourseRepo.FindWithModules(courseID)
	if err != nil {
		return nil, err
	}

	detail := buildCourseDetail(course)

	if s.Redis != nil {
		if data, err := json.Marshal(detail); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, data, courseCacheTTL).Err(); err != nil {
				logger.Log.Warn("course cache write failed", zap.String("courseId", courseID), zap.Error(err))
			}
		}
	}

	return detail, nil
}

// CourseView returns the aggregator's catalog view of a course, reusing the
// cached detail when available.
func (s *CatalogService) CourseView(ctx context.Context, courseID string) (playback.CourseView, error) {
	course, err := s.CourseRepo.FindWithModules(courseID)
	if err != nil {
		return playback.CourseView{}, err
	}
	return course.View(), nil
}

func (s *CatalogService) GetModule(moduleID string) (*model.CourseModule, error) {
	return s.ModuleRepo.FindByID(moduleID)
}

// UploadModuleVideo stores a teacher-uploaded native video, probes its real
// duration with ffprobe and appends it to the module's ordered video list.
// Client-reported durations are never trusted for native files.
func (s *CatalogService) UploadModuleVideo(ctx context.Context, moduleID string, file *multipart.FileHeader, title string, order int) (*model.ModuleVideo, error) {
	mod, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".mp4" && ext != ".webm" && ext != ".mov" {
		return nil, util.ErrUnsupportedVideoFormat
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.ReadFrom(src); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	var duration float64
	if info, err := util.ProbeVideo(tmpPath); err != nil {
		logger.Log.Warn("video probe failed, storing with zero duration",
			zap.String("moduleId", moduleID), zap.Error(err))
	} else {
		duration = info.Duration
	}

	filename := "videos/" + moduleID + "/" + uuid.New().String() + ext
	url, err := s.Storage.UploadFile(ctx, filename, tmpPath, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	video := &model.ModuleVideo{
		ModuleID:        moduleID,
		URL:             url,
		Title:           title,
		Order:           order,
		DurationSeconds: duration,
	}
	if err := s.ModuleRepo.AddVideo(video); err != nil {
		return nil, err
	}

	s.invalidateCourse(ctx, mod.CourseID)
	return video, nil
}

func (s *CatalogService) invalidateCourse(ctx context.Context, courseID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, courseCacheKeyPrefix+courseID).Err(); err != nil {
		logger.Log.Warn("course cache invalidation failed", zap.String("courseId", courseID), zap.Error(err))
	}
}

func buildCourseDetail(course *model.Course) *CourseDetail {
	detail := &CourseDetail{Course: *course}
	detail.Course.Modules = nil

	for i := range course.Modules {
		mod := &course.Modules[i]
		view := ModuleView{
			ID:          mod.ID,
			Number:      mod.Number,
			Title:       mod.Title,
			Description: mod.Description,
			IsFree:      mod.IsFree,
			Materials:   mod.Materials,
			Videos:      []VideoView{},
		}
		for _, ref := range mod.VideoRefs() {
			view.Videos = append(view.Videos, videoView(ref))
		}
		detail.Modules = append(detail.Modules, view)
	}
	return detail
}

func videoView(ref playback.VideoRef) VideoView {
	v := VideoView{
		ID:       ref.ID,
		URL:      ref.URL,
		Title:    ref.Title,
		Order:    ref.Order,
		Duration: ref.DurationSeconds,
	}
	provider := playback.Classify(ref.URL)
	v.Provider = provider.String()
	switch {
	case strings.Contains(ref.URL, "youtube.com"), strings.Contains(ref.URL, "youtu.be"):
		v.EmbedURL = playback.YouTubeEmbedURL(ref.URL)
	case strings.Contains(ref.URL, "vimeo.com"):
		v.EmbedURL = playback.VimeoEmbedURL(ref.URL)
	case provider == playback.OpaqueEmbed:
		v.EmbedURL = playback.PreziEmbedURL(ref.URL)
	}
	return v
}
