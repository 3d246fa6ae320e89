package repository

import (
	"errors"

	"cursoteca_backend/internal/model"
	"cursoteca_backend/internal/util"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) FindByID(id string) (*model.CourseModule, error) {
	var mod model.CourseModule
	err := r.DB.
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Materials").
		First(&mod, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrModuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mod, nil
}

func (r *ModuleRepository) ListByCourse(courseID string) ([]model.CourseModule, error) {
	var mods []model.CourseModule
	err := r.DB.
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Materials").
		Where("course_id = ?", courseID).
		Order("number ASC").
		Find(&mods).Error
	return mods, err
}

func (r *ModuleRepository) AddVideo(video *model.ModuleVideo) error {
	return r.DB.Create(video).Error
}

func (r *ModuleRepository) UpdateVideoDuration(videoID string, durationSeconds float64) error {
	return r.DB.Model(&model.ModuleVideo{}).
		Where("id = ?", videoID).
		Update("duration_seconds", durationSeconds).Error
}
