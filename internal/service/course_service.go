package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/model"
	"course-enrollment/internal/repository"
	pkgerrors "course-enrollment/pkg/errors"
)

// CourseService 协调员课程管理
// 每次成功变更后清除目录缓存
type CourseService interface {
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	SetActive(ctx context.Context, id string, active bool, callerID string) (*dto.CourseResponse, error)
}

type courseService struct {
	repo    *repository.Repository
	catalog CatalogService
	logger  *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, catalog CatalogService, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, catalog: catalog, logger: logger}
}

// courseInput 创建与编辑共用的待校验字段
type courseInput struct {
	code        string
	name        string
	credits     int
	maxCapacity int
	startTime   string
	endTime     string
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	in := courseInput{
		code:        req.Code,
		name:        req.Name,
		credits:     req.Credits,
		maxCapacity: req.MaxCapacity,
		startTime:   req.StartTime,
		endTime:     req.EndTime,
	}
	start, end, err := s.validate(ctx, in, "")
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		Credits:     req.Credits,
		MaxCapacity: req.MaxCapacity,
		StartTime:   start,
		EndTime:     end,
		IsActive:    true,
	}
	course.Version = 1
	course.CreatedBy = &callerID
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCodeError()
		}
		s.logger.Error("创建课程失败", zap.String("code", course.Code), zap.Error(err))
		return nil, err
	}

	s.catalog.Invalidate(ctx)
	s.logger.Info("课程已创建", zap.String("id", course.CourseID), zap.String("code", course.Code), zap.String("by", callerID))
	return toCourseResponse(course), nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	in := courseInput{
		code:        req.Code,
		name:        req.Name,
		credits:     req.Credits,
		maxCapacity: req.MaxCapacity,
		startTime:   req.StartTime,
		endTime:     req.EndTime,
	}
	start, end, err := s.validate(ctx, in, id)
	if err != nil {
		return nil, err
	}

	// 启用状态不随编辑改变
	course.Code = strings.TrimSpace(req.Code)
	course.Name = strings.TrimSpace(req.Name)
	course.Credits = req.Credits
	course.MaxCapacity = req.MaxCapacity
	course.StartTime = start
	course.EndTime = end
	course.Version = req.Version
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, s.resolveConflict(ctx, id)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, duplicateCodeError()
		}
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.catalog.Invalidate(ctx)
	s.logger.Info("课程已更新", zap.String("id", id), zap.Int("version", course.Version), zap.String("by", callerID))
	return toCourseResponse(course), nil
}

// resolveConflict 版本不匹配时区分记录已被删除与被并发修改
func (s *courseService) resolveConflict(ctx context.Context, id string) error {
	exists, err := s.repo.Course.Exists(ctx, id)
	if err != nil {
		s.logger.Error("检查课程是否存在失败", zap.String("id", id), zap.Error(err))
		return ErrCourseConflict
	}
	if !exists {
		return ErrCourseNotFound
	}
	return ErrCourseConflict
}

// ────────────────────── SetActive ──────────────────────

func (s *courseService) SetActive(ctx context.Context, id string, active bool, callerID string) (*dto.CourseResponse, error) {
	if err := s.repo.Course.SetActive(ctx, id, active, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("切换课程状态失败", zap.String("id", id), zap.Bool("active", active), zap.Error(err))
		return nil, err
	}

	s.catalog.Invalidate(ctx)
	s.logger.Info("课程状态已切换", zap.String("id", id), zap.Bool("active", active), zap.String("by", callerID))
	return s.GetByID(ctx, id)
}

// ── 内部辅助方法 ──

// validate 校验字段与课程代码唯一性（编辑时排除自身），返回解析后的上下课时刻
func (s *courseService) validate(ctx context.Context, in courseInput, excludeID string) (model.TimeOfDay, model.TimeOfDay, error) {
	verr := &ValidationError{}

	code := strings.TrimSpace(in.code)
	switch {
	case code == "":
		verr.add("code", "课程代码不能为空")
	case len([]rune(code)) > 20:
		verr.add("code", "课程代码不能超过 20 个字符")
	}

	name := strings.TrimSpace(in.name)
	switch {
	case name == "":
		verr.add("name", "课程名称不能为空")
	case len([]rune(name)) > 100:
		verr.add("name", "课程名称不能超过 100 个字符")
	}

	if in.credits < 1 || in.credits > 10 {
		verr.add("credits", "学分须在 1-10 之间")
	}
	if in.maxCapacity < 1 || in.maxCapacity > 100 {
		verr.add("max_capacity", "容量须在 1-100 之间")
	}

	start, startErr := model.ParseTimeOfDay(in.startTime)
	if startErr != nil {
		verr.add("start_time", "时刻格式应为 HH:MM")
	}
	end, endErr := model.ParseTimeOfDay(in.endTime)
	if endErr != nil {
		verr.add("end_time", "时刻格式应为 HH:MM")
	}
	if startErr == nil && endErr == nil && start >= end {
		verr.add("end_time", "下课时间必须晚于上课时间")
	}

	if code != "" {
		exists, err := s.repo.Course.ExistsByCode(ctx, code, excludeID)
		if err != nil {
			s.logger.Error("检查课程代码失败", zap.String("code", code), zap.Error(err))
			return 0, 0, err
		}
		if exists {
			verr.add("code", "课程代码已存在")
		}
	}

	if err := verr.orNil(); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func duplicateCodeError() error {
	return &ValidationError{Fields: map[string]string{"code": "课程代码已存在"}}
}
