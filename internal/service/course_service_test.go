package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/repository"
	"course-enrollment/pkg/cache"
	pkgerrors "course-enrollment/pkg/errors"
)

// ── 测试辅助 ──

func setupTestCourseService() (CourseService, CatalogService, *mockCourseRepo) {
	courseRepo := newMockCourseRepo()
	repo := &repository.Repository{
		Course:     courseRepo,
		Enrollment: newMockEnrollmentRepo(courseRepo),
	}
	logger := zap.NewNop()
	catalog := NewCatalogService(repo, cache.NewMemoryStore(), DefaultCatalogTTL, logger)
	return NewCourseService(repo, catalog, logger), catalog, courseRepo
}

func validCreateRequest(code string) *dto.CreateCourseRequest {
	return &dto.CreateCourseRequest{
		Code:        code,
		Name:        "Química General",
		Credits:     3,
		MaxCapacity: 40,
		StartTime:   "16:00",
		EndTime:     "18:00",
	}
}

func updateRequestFrom(c *dto.CourseResponse) *dto.UpdateCourseRequest {
	return &dto.UpdateCourseRequest{
		Code:        c.Code,
		Name:        c.Name,
		Credits:     c.Credits,
		MaxCapacity: c.MaxCapacity,
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
		Version:     c.Version,
	}
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Errorf("期望字段 %s 报错，实际: %v", field, verr.Fields)
	}
}

// ── Create 测试 ──

func TestCourseService_Create_Success(t *testing.T) {
	svc, catalog, courseRepo := setupTestCourseService()
	seedDemoCourses(courseRepo)

	// 先填充缓存
	before, _ := catalog.ActiveCourses(context.Background())

	result, err := svc.Create(context.Background(), validCreateRequest("QUI101"), "coord-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !result.IsActive {
		t.Error("新建课程应默认启用")
	}
	if result.Version != 1 {
		t.Errorf("期望 Version=1，实际=%d", result.Version)
	}
	if result.StartTime != "16:00" || result.EndTime != "18:00" {
		t.Errorf("期望 16:00-18:00，实际 %s-%s", result.StartTime, result.EndTime)
	}

	after, _ := catalog.ActiveCourses(context.Background())
	if len(after) != len(before)+1 {
		t.Errorf("创建后目录缓存应失效，期望 %d 门，实际 %d 门", len(before)+1, len(after))
	}
}

func TestCourseService_Create_StartNotBeforeEnd(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()

	req := validCreateRequest("QUI101")
	req.StartTime, req.EndTime = "10:00", "10:00"

	_, err := svc.Create(context.Background(), req, "coord-1")
	assertValidationField(t, err, "end_time")
	if len(courseRepo.courses) != 0 {
		t.Error("校验失败不应写入任何课程")
	}
}

func TestCourseService_Create_DuplicateCode(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	seedDemoCourses(courseRepo)

	_, err := svc.Create(context.Background(), validCreateRequest("MAT101"), "coord-1")
	assertValidationField(t, err, "code")
}

func TestCourseService_Create_InvalidFields(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	req := validCreateRequest("QUI101")
	req.Credits = 0
	req.MaxCapacity = 101
	req.StartTime = "abc"

	_, err := svc.Create(context.Background(), req, "coord-1")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	for _, field := range []string{"credits", "max_capacity", "start_time"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("期望字段 %s 报错", field)
		}
	}
}

// ── Update 测试 ──

func TestCourseService_Update_Success(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)
	_ = courseRepo.SetActive(context.Background(), mat.CourseID, false, "coord-1")

	loaded, _ := svc.GetByID(context.Background(), mat.CourseID)
	req := updateRequestFrom(loaded)
	req.Name = "Matemáticas I"
	req.MaxCapacity = 50

	result, err := svc.Update(context.Background(), mat.CourseID, req, "coord-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "Matemáticas I" || result.MaxCapacity != 50 {
		t.Errorf("更新字段未生效: %+v", result)
	}
	if result.Version != loaded.Version+1 {
		t.Errorf("期望 Version=%d，实际=%d", loaded.Version+1, result.Version)
	}
	if result.IsActive {
		t.Error("编辑不应改变启用状态")
	}
}

func TestCourseService_Update_KeepsOwnCode(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)

	loaded, _ := svc.GetByID(context.Background(), mat.CourseID)
	if _, err := svc.Update(context.Background(), mat.CourseID, updateRequestFrom(loaded), "coord-1"); err != nil {
		t.Fatalf("保留自身课程代码应成功: %v", err)
	}
}

func TestCourseService_Update_CodeTakenByOther(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)

	loaded, _ := svc.GetByID(context.Background(), mat.CourseID)
	req := updateRequestFrom(loaded)
	req.Code = "PROG101"

	_, err := svc.Update(context.Background(), mat.CourseID, req, "coord-1")
	assertValidationField(t, err, "code")
}

func TestCourseService_Update_StaleVersion(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)

	loaded, _ := svc.GetByID(context.Background(), mat.CourseID)

	first := updateRequestFrom(loaded)
	first.Name = "Primero"
	if _, err := svc.Update(context.Background(), mat.CourseID, first, "coord-1"); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	stale := updateRequestFrom(loaded)
	stale.Name = "Segundo"
	_, err := svc.Update(context.Background(), mat.CourseID, stale, "coord-2")
	if !errors.Is(err, ErrCourseConflict) {
		t.Errorf("期望 ErrCourseConflict，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Error("ErrCourseConflict 应包装 ErrOptimisticLock")
	}

	got, _ := svc.GetByID(context.Background(), mat.CourseID)
	if got.Name != "Primero" {
		t.Errorf("过期版本的写入不应生效，实际 Name=%s", got.Name)
	}
}

func TestCourseService_Update_RowDeletedConcurrently(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)

	loaded, _ := svc.GetByID(context.Background(), mat.CourseID)
	courseRepo.deleteOnUpdate = true

	_, err := svc.Update(context.Background(), mat.CourseID, updateRequestFrom(loaded), "coord-1")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("记录已不存在时期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestCourseService_Update_NotFound(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	req := &dto.UpdateCourseRequest{Code: "X", Name: "X", Credits: 1, MaxCapacity: 1, StartTime: "08:00", EndTime: "09:00", Version: 1}
	_, err := svc.Update(context.Background(), "nonexistent", req, "coord-1")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── SetActive 测试 ──

func TestCourseService_SetActive_InvalidatesCatalog(t *testing.T) {
	svc, catalog, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)

	_, _ = catalog.ActiveCourses(context.Background())

	result, err := svc.SetActive(context.Background(), mat.CourseID, false, "coord-1")
	if err != nil {
		t.Fatalf("SetActive 应成功: %v", err)
	}
	if result.IsActive {
		t.Error("期望 IsActive=false")
	}

	courses, _ := catalog.ActiveCourses(context.Background())
	for _, c := range courses {
		if c.CourseID == mat.CourseID {
			t.Error("停用后课程不应出现在目录中")
		}
	}

	if _, err := svc.SetActive(context.Background(), mat.CourseID, true, "coord-1"); err != nil {
		t.Fatalf("重新启用应成功: %v", err)
	}
	courses, _ = catalog.ActiveCourses(context.Background())
	if len(courses) != 3 {
		t.Errorf("重新启用后目录应恢复 3 门，实际 %d 门", len(courses))
	}
}

func TestCourseService_SetActive_NotFound(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	_, err := svc.SetActive(context.Background(), "nonexistent", false, "coord-1")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── List / GetByID 测试 ──

func TestCourseService_List_IncludesInactive(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	mat, _, _ := seedDemoCourses(courseRepo)
	_ = courseRepo.SetActive(context.Background(), mat.CourseID, false, "coord-1")

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("协调员列表应包含停用课程，期望 3 门，实际 %d 门", len(list))
	}
}
