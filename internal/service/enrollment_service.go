package service

import (
	"context"
	"encoding/json"
	"time"

	"cursoteca_backend/internal/model"
	"cursoteca_backend/internal/playback"
	"cursoteca_backend/internal/repository"
	"cursoteca_backend/internal/util"
	"cursoteca_backend/pkg/logger"
	"cursoteca_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	enrollmentCacheKeyPrefix = "enrollment:"
	enrollmentCacheTTL       = 30 * time.Second
)

// EnrollmentService owns enrollment state and the server side of the
// progress contract: every write merges monotonically under a row lock and
// recomputes the authoritative course percentage before it commits.
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	ModuleRepo     *repository.ModuleRepository
	Redis          *redis.Client
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, moduleRepo *repository.ModuleRepository, rdb *redis.Client) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		ModuleRepo:     moduleRepo,
		Redis:          rdb,
	}
}

// SaveProgressRequest is one debounced snapshot from the playback engine.
type SaveProgressRequest struct {
	ModuleID          string  `json:"moduleId" binding:"required"`
	VideoID           string  `json:"videoId" binding:"required"`
	WatchedSeconds    float64 `json:"watchedSeconds"`
	MaxReachedSeconds float64 `json:"maxReachedSeconds"`
	Duration          float64 `json:"duration"`
	LastPosition      float64 `json:"lastPosition"`
}

func (s *EnrollmentService) Enroll(studentID, courseID string) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.FindWithModules(courseID); err != nil {
		return nil, err
	}
	if _, err := s.EnrollmentRepo.FindByStudentAndCourse(studentID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if err != util.ErrNotEnrolled {
		return nil, err
	}

	e := &model.Enrollment{
		CourseID:   courseID,
		StudentID:  studentID,
		EnrolledAt: time.Now(),
	}
	e.SetProgressData(playback.ProgressMap{})
	if err := s.EnrollmentRepo.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the student's enrollment, served from a short-lived cache so
// the engine's periodic refresh reads stay off the database.
func (s *EnrollmentService) Get(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	cacheKey := enrollmentCacheKeyPrefix + studentID + ":" + courseID
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var e model.Enrollment
			if err := json.Unmarshal([]byte(cached), &e); err == nil {
				return &e, nil
			}
		}
	}

	e, err := s.EnrollmentRepo.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		return nil, err
	}

	s.cacheEnrollment(ctx, cacheKey, e)
	return e, nil
}

func (s *EnrollmentService) List(studentID string) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByStudent(studentID)
}

// SaveVideoProgress folds one snapshot into the enrollment under a row
// lock. Watched and max-reached never shrink, module and course rollups are
// recomputed from the merged state, and the write is keyed to the snapshot's
// (module, video) so concurrent writes for other videos stay intact.
func (s *EnrollmentService) SaveVideoProgress(ctx context.Context, studentID, courseID string, req SaveProgressRequest) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindWithModules(courseID)
	if err != nil {
		return nil, err
	}

	mod := findModule(course, req.ModuleID)
	if mod == nil {
		return nil, util.ErrModuleNotFound
	}
	videos := mod.VideoRefs()
	if !containsVideo(videos, req.VideoID) {
		return nil, util.ErrVideoNotFound
	}

	snap := playback.Snapshot{
		ModuleID:          req.ModuleID,
		VideoID:           req.VideoID,
		WatchedSeconds:    req.WatchedSeconds,
		MaxReachedSeconds: req.MaxReachedSeconds,
		DurationSeconds:   req.Duration,
		CurrentPosition:   req.LastPosition,
	}

	e, err := s.EnrollmentRepo.SaveInTx(studentID, courseID, func(e *model.Enrollment) error {
		pm := e.ProgressData()
		mp := pm[req.ModuleID]
		if mp.Videos == nil {
			mp.Videos = map[string]playback.VideoProgress{}
		}

		mp.Videos[req.VideoID] = playback.MergeSnapshot(mp.Videos[req.VideoID], snap)
		mp.LastVideoID = req.VideoID

		if !mp.Completed && playback.IsModuleComplete(videos, mp) {
			mp.Completed = true
			if !e.HasCompletedModule(req.ModuleID) {
				e.CompletedModules = append(e.CompletedModules, req.ModuleID)
			}
		}

		pm[req.ModuleID] = mp
		e.SetProgressData(pm)
		e.LastWatchedModule = req.ModuleID
		e.Progress = playback.CourseProgressPercent(course.View(), pm)
		return nil
	})
	if err != nil {
		monitoring.ProgressWrites.WithLabelValues("error").Inc()
		return nil, err
	}

	monitoring.ProgressWrites.WithLabelValues("ok").Inc()
	s.invalidateEnrollment(ctx, studentID, courseID)

	logger.Log.Debug("video progress saved",
		zap.String("studentId", studentID),
		zap.String("moduleId", req.ModuleID),
		zap.String("videoId", req.VideoID),
		zap.Float64("maxReached", req.MaxReachedSeconds),
		zap.Int("progress", e.Progress))
	return e, nil
}

// CompleteModule marks a module with no playable videos as completed on
// visit. Modules that carry videos complete only through watched progress,
// so the direct call is rejected for them.
func (s *EnrollmentService) CompleteModule(ctx context.Context, studentID, courseID, moduleID string) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindWithModules(courseID)
	if err != nil {
		return nil, err
	}

	mod := findModule(course, moduleID)
	if mod == nil {
		return nil, util.ErrModuleNotFound
	}
	if len(mod.VideoRefs()) > 0 {
		return nil, util.ErrModuleHasVideos
	}

	e, err := s.EnrollmentRepo.SaveInTx(studentID, courseID, func(e *model.Enrollment) error {
		pm := e.ProgressData()
		mp := pm[moduleID]
		mp.Completed = true
		pm[moduleID] = mp
		e.SetProgressData(pm)
		if !e.HasCompletedModule(moduleID) {
			e.CompletedModules = append(e.CompletedModules, moduleID)
		}
		e.LastWatchedModule = moduleID
		e.Progress = playback.CourseProgressPercent(course.View(), pm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEnrollment(ctx, studentID, courseID)
	return e, nil
}

// ResumeTarget answers "where do I land when I reopen this course".
func (s *EnrollmentService) ResumeTarget(ctx context.Context, studentID, courseID string) (moduleID, videoID string, err error) {
	e, err := s.Get(ctx, studentID, courseID)
	if err != nil {
		return "", "", err
	}
	course, err := s.CourseRepo.FindWithModules(courseID)
	if err != nil {
		return "", "", err
	}
	moduleID, videoID = playback.ResumeTarget(course.View(), e.LastWatchedModule, e.ProgressData())
	return moduleID, videoID, nil
}

func (s *EnrollmentService) cacheEnrollment(ctx context.Context, key string, e *model.Enrollment) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, enrollmentCacheTTL).Err(); err != nil {
		logger.Log.Warn("enrollment cache write failed", zap.Error(err))
	}
}

func (s *EnrollmentService) invalidateEnrollment(ctx context.Context, studentID, courseID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, enrollmentCacheKeyPrefix+studentID+":"+courseID).Err(); err != nil {
		logger.Log.Warn("enrollment cache invalidation failed", zap.Error(err))
	}
}

func findModule(course *model.Course, moduleID string) *model.CourseModule {
	for i := range course.Modules {
		if course.Modules[i].ID == moduleID {
			return &course.Modules[i]
		}
	}
	return nil
}

func containsVideo(videos []playback.VideoRef, videoID string) bool {
	for _, v := range videos {
		if v.ID == videoID {
			return true
		}
	}
	return false
}
