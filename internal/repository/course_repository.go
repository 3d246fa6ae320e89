package repository

import (
	"errors"

	"cursoteca_backend/internal/model"
	"cursoteca_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) List(page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	if err := r.DB.Model(&model.Course{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, total, err
}

// FindWithModules loads the course with its module/video/material tree, the
// shape both the catalog API and the progress recompute need.
func (r *CourseRepository) FindWithModules(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Preload("Modules.Videos", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Modules.Materials").
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}
