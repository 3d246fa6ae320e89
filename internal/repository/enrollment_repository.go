package repository

import (
	"errors"

	"cursoteca_backend/internal/model"
	"cursoteca_backend/internal/util"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) FindByStudentAndCourse(studentID, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.First(&e, "student_id = ? AND course_id = ?", studentID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByStudent(studentID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.DB.Where("student_id = ?", studentID).Order("enrolled_at DESC").Find(&list).Error
	return list, err
}

func (r *EnrollmentRepository) Save(e *model.Enrollment) error {
	return r.DB.Save(e).Error
}

// SaveInTx runs fn against a row-locked enrollment so two interleaved
// progress writes for the same enrollment cannot lose each other's merge.
func (r *EnrollmentRepository) SaveInTx(studentID, courseID string, fn func(e *model.Enrollment) error) (*model.Enrollment, error) {
	var out *model.Enrollment
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var e model.Enrollment
		err := tx.
			Set("gorm:query_option", "FOR UPDATE").
			First(&e, "student_id = ? AND course_id = ?", studentID, courseID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotEnrolled
		}
		if err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
		if err := tx.Save(&e).Error; err != nil {
			return err
		}
		out = &e
		return nil
	})
	return out, err
}
