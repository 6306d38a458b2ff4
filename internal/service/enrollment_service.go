package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/model"
	"course-enrollment/internal/repository"
)

// EnrollmentService 学生选课与协调员审核
type EnrollmentService interface {
	// Enroll 依次校验：课程启用 → 未重复选课 → 未满员 → 无时间冲突，全部通过后写入待确认记录
	Enroll(ctx context.Context, studentID, courseID string) (*dto.EnrollmentResponse, error)
	ListMine(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error)
	List(ctx context.Context, req *dto.EnrollmentListRequest) ([]dto.EnrollmentResponse, error)
	Confirm(ctx context.Context, id string, callerID string) (*dto.EnrollmentResponse, error)
	Cancel(ctx context.Context, id string, callerID string) (*dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo   *repository.Repository
	strict bool
	now    func() time.Time
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
// strict 为 true 时已确认/已取消的记录不可再变更状态
func NewEnrollmentService(repo *repository.Repository, strict bool, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, strict: strict, now: time.Now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Enroll
// ═══════════════════════════════════════════════════════════
//
// 容量与时间冲突检查先读后写，不加跨请求锁，并发请求可能同时通过。
// 同一学生同一课程的唯一性由数据库唯一索引保证。

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID string) (*dto.EnrollmentResponse, error) {
	log := s.logger.With(zap.String("student_id", studentID), zap.String("course_id", courseID))

	// 1. 课程存在且启用
	course, err := s.repo.Course.GetActiveByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseUnavailable
		}
		log.Error("查询课程失败", zap.Error(err))
		return nil, ErrEnrollmentFailed
	}

	// 2. 任意状态的已有记录都视为重复
	_, err = s.repo.Enrollment.GetByCourseAndStudent(ctx, courseID, studentID)
	switch {
	case err == nil:
		return nil, &EnrollmentRejection{Reason: RejectAlreadyEnrolled, CourseName: course.Name}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error("查询已有选课失败", zap.Error(err))
		return nil, ErrEnrollmentFailed
	}

	// 3. 容量
	confirmed, err := s.repo.Enrollment.CountByCourseAndStatus(ctx, courseID, model.EnrollmentConfirmed)
	if err != nil {
		log.Error("统计已确认人数失败", zap.Error(err))
		return nil, ErrEnrollmentFailed
	}
	if !hasCapacity(course, confirmed) {
		return nil, &EnrollmentRejection{Reason: RejectCourseFull, CourseName: course.Name, Capacity: course.MaxCapacity}
	}

	// 4. 时间冲突
	scheduled, err := s.repo.Enrollment.ListScheduledByStudent(ctx, studentID)
	if err != nil {
		log.Error("查询学生课表失败", zap.Error(err))
		return nil, ErrEnrollmentFailed
	}
	if other := findScheduleConflict(course, scheduled); other != nil {
		return nil, &EnrollmentRejection{Reason: RejectScheduleConflict, CourseName: course.Name, ConflictCourse: other.Name}
	}

	// 5. 写入待确认记录
	enrollment := &model.Enrollment{
		CourseID:     courseID,
		StudentID:    studentID,
		RegisteredAt: s.now(),
		Status:       model.EnrollmentPending,
	}
	enrollment.CreatedBy = &studentID
	enrollment.UpdatedBy = &studentID

	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &EnrollmentRejection{Reason: RejectAlreadyEnrolled, CourseName: course.Name}
		}
		log.Error("写入选课记录失败", zap.Error(err))
		return nil, ErrEnrollmentFailed
	}

	enrollment.Course = course
	log.Info("选课成功，等待确认", zap.String("enrollment_id", enrollment.EnrollmentID))
	return toEnrollmentResponse(enrollment), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *enrollmentService) ListMine(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("列出学生选课失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toEnrollmentResponses(enrollments), nil
}

// ────────────────────── List ──────────────────────

func (s *enrollmentService) List(ctx context.Context, req *dto.EnrollmentListRequest) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.Enrollment.List(ctx, req.CourseID)
	if err != nil {
		s.logger.Error("列出选课记录失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}
	return toEnrollmentResponses(enrollments), nil
}

// ────────────────────── Confirm / Cancel ──────────────────────

func (s *enrollmentService) Confirm(ctx context.Context, id string, callerID string) (*dto.EnrollmentResponse, error) {
	return s.transition(ctx, id, model.EnrollmentConfirmed, callerID)
}

func (s *enrollmentService) Cancel(ctx context.Context, id string, callerID string) (*dto.EnrollmentResponse, error) {
	return s.transition(ctx, id, model.EnrollmentCancelled, callerID)
}

func (s *enrollmentService) transition(ctx context.Context, id string, target model.EnrollmentStatus, callerID string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询选课记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if s.strict && enrollment.Status.Terminal() {
		return nil, ErrEnrollmentTerminal
	}

	if err := s.repo.Enrollment.UpdateStatus(ctx, id, target, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("更新选课状态失败", zap.String("id", id), zap.String("status", string(target)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("选课状态已变更",
		zap.String("id", id),
		zap.String("from", string(enrollment.Status)),
		zap.String("to", string(target)),
		zap.String("by", callerID),
	)
	enrollment.Status = target
	enrollment.UpdatedBy = &callerID
	return toEnrollmentResponse(enrollment), nil
}

// ── 内部辅助方法 ──

func toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:           e.EnrollmentID,
		CourseID:     e.CourseID,
		StudentID:    e.StudentID,
		Status:       string(e.Status),
		RegisteredAt: e.RegisteredAt.Format(time.RFC3339),
	}
	if e.Course != nil {
		resp.Course = &dto.CourseBrief{
			ID:        e.Course.CourseID,
			Code:      e.Course.Code,
			Name:      e.Course.Name,
			StartTime: e.Course.StartTime.String(),
			EndTime:   e.Course.EndTime.String(),
			IsActive:  e.Course.IsActive,
		}
	}
	return resp
}

func toEnrollmentResponses(enrollments []model.Enrollment) []dto.EnrollmentResponse {
	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		result = append(result, *toEnrollmentResponse(&enrollments[i]))
	}
	return result
}
