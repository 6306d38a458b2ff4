package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/model"
	"course-enrollment/internal/repository"
	"course-enrollment/pkg/cache"
)

// catalogCacheKey 启用课程快照的唯一缓存键
const catalogCacheKey = "catalog:active_courses"

// DefaultCatalogTTL 目录缓存默认有效期
const DefaultCatalogTTL = 60 * time.Second

// CatalogService 学生课程目录
//
// 缓存约定：
//   - 无筛选条件的目录读取走缓存（读穿透），命中且可解码时直接返回
//   - 未命中、过期、解码失败或读缓存出错时回源数据库，并以 TTL 回写
//   - 缓存的任何错误只记 Warn 日志，不影响结果
//   - 同一进程内并发未命中合并为一次数据库查询
//   - Invalidate 之前发起的回源结果照常返回，但不回写缓存
//   - 带筛选条件的请求绕过缓存，不与缓存路径混用
type CatalogService interface {
	// List 按是否有筛选条件选择缓存路径或筛选路径
	List(ctx context.Context, filter *dto.CatalogFilter) ([]dto.CourseResponse, error)
	// GetActiveCourse 学生查看课程详情，停用课程视为不存在
	GetActiveCourse(ctx context.Context, id string) (*dto.CourseResponse, error)
	// ActiveCourses 启用课程全集（按名称排序），经由缓存
	ActiveCourses(ctx context.Context) ([]model.Course, error)
	// Filter 筛选启用课程：名称/代码与学分下推数据库，上下课时刻在内存过滤
	Filter(ctx context.Context, filter *dto.CatalogFilter) ([]model.Course, error)
	// Invalidate 删除目录缓存，失败只记日志
	Invalidate(ctx context.Context)
}

type catalogService struct {
	repo   *repository.Repository
	store  cache.Store
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger

	mu  sync.Mutex // 串行化 gen 变更与缓存回写
	gen uint64     // 每次 Invalidate 递增
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, store cache.Store, ttl time.Duration, logger *zap.Logger) CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &catalogService{repo: repo, store: store, ttl: ttl, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *catalogService) List(ctx context.Context, filter *dto.CatalogFilter) ([]dto.CourseResponse, error) {
	var (
		courses []model.Course
		err     error
	)
	if filter == nil || filter.IsEmpty() {
		courses, err = s.ActiveCourses(ctx)
	} else {
		courses, err = s.Filter(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ────────────────────── GetActiveCourse ──────────────────────

func (s *catalogService) GetActiveCourse(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── ActiveCourses ──────────────────────

func (s *catalogService) ActiveCourses(ctx context.Context) ([]model.Course, error) {
	if courses, ok := s.readCache(ctx); ok {
		return courses, nil
	}

	gen := s.generation()
	v, err, _ := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		courses, err := s.repo.Course.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		s.writeCache(ctx, gen, courses)
		return courses, nil
	})
	if err != nil {
		s.logger.Error("查询启用课程失败", zap.Error(err))
		return nil, err
	}

	// 合并的调用方共享同一切片，各自返回副本
	shared := v.([]model.Course)
	courses := make([]model.Course, len(shared))
	copy(courses, shared)
	return courses, nil
}

func (s *catalogService) readCache(ctx context.Context) ([]model.Course, bool) {
	data, err := s.store.Get(ctx, catalogCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("读取目录缓存失败，回源数据库", zap.Error(err))
		}
		return nil, false
	}

	var courses []model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		s.logger.Warn("目录缓存内容无法解码，回源数据库", zap.Error(err))
		return nil, false
	}
	return courses, true
}

func (s *catalogService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// writeCache 仅当回源期间没有发生 Invalidate 时回写
func (s *catalogService) writeCache(ctx context.Context, gen uint64, courses []model.Course) {
	data, err := json.Marshal(courses)
	if err != nil {
		s.logger.Warn("目录缓存序列化失败", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("目录已失效，丢弃回源快照")
		return
	}
	if err := s.store.Set(ctx, catalogCacheKey, data, s.ttl); err != nil {
		s.logger.Warn("写入目录缓存失败", zap.Error(err))
	}
}

// ────────────────────── Filter ──────────────────────

func (s *catalogService) Filter(ctx context.Context, filter *dto.CatalogFilter) ([]model.Course, error) {
	from, to, err := parseCatalogFilter(filter)
	if err != nil {
		return nil, err
	}

	courses, err := s.repo.Course.ListActiveFiltered(ctx, repository.CourseQuery{
		Keyword:    strings.TrimSpace(filter.Name),
		MinCredits: filter.MinCredits,
		MaxCredits: filter.MaxCredits,
	})
	if err != nil {
		s.logger.Error("筛选课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if from != nil && c.StartTime < *from {
			continue
		}
		if to != nil && c.EndTime > *to {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func parseCatalogFilter(filter *dto.CatalogFilter) (from, to *model.TimeOfDay, err error) {
	verr := &ValidationError{}

	if filter.MinCredits != nil && (*filter.MinCredits < 0 || *filter.MinCredits > 10) {
		verr.add("min_credits", "学分下限须在 0-10 之间")
	}
	if filter.MaxCredits != nil && (*filter.MaxCredits < 0 || *filter.MaxCredits > 10) {
		verr.add("max_credits", "学分上限须在 0-10 之间")
	}
	if filter.MinCredits != nil && filter.MaxCredits != nil && *filter.MinCredits > *filter.MaxCredits {
		verr.add("min_credits", "学分下限不能大于上限")
	}

	if raw := strings.TrimSpace(filter.From); raw != "" {
		t, perr := model.ParseTimeOfDay(raw)
		if perr != nil {
			verr.add("from", "时刻格式应为 HH:MM")
		} else {
			from = &t
		}
	}
	if raw := strings.TrimSpace(filter.To); raw != "" {
		t, perr := model.ParseTimeOfDay(raw)
		if perr != nil {
			verr.add("to", "时刻格式应为 HH:MM")
		} else {
			to = &t
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// ────────────────────── Invalidate ──────────────────────

func (s *catalogService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	// 之后的未命中不再并入失效前发起的回源
	s.group.Forget(catalogCacheKey)
	if err := s.store.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("清除目录缓存失败，等待 TTL 过期", zap.Error(err))
		return
	}
	s.logger.Debug("目录缓存已清除")
}

// ── 内部辅助方法 ──

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:          c.CourseID,
		Code:        c.Code,
		Name:        c.Name,
		Credits:     c.Credits,
		MaxCapacity: c.MaxCapacity,
		StartTime:   c.StartTime.String(),
		EndTime:     c.EndTime.String(),
		IsActive:    c.IsActive,
		Version:     c.Version,
	}
	if !c.CreatedAt.IsZero() {
		resp.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
