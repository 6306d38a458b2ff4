package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"course-enrollment/internal/model"
	"course-enrollment/internal/repository"
	pkgerrors "course-enrollment/pkg/errors"
)

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*model.Course

	listActiveCalls   atomic.Int32
	listFilteredCalls atomic.Int32
	listActiveGate    chan struct{} // 非 nil 时 ListActive 阻塞到关闭
	afterSnapshot     func()        // ListActive 取完快照、返回之前调用
	listActiveErr     error
	deleteOnUpdate    bool // Update 前删除记录，模拟并发删除
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) add(c *model.Course) *model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.CourseID == "" {
		c.CourseID = "course-" + c.Code
	}
	if c.Version == 0 {
		c.Version = 1
	}
	cp := *c
	m.courses[c.CourseID] = &cp
	return c
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	for _, c := range m.courses {
		if c.Code == course.Code {
			m.mu.Unlock()
			return gorm.ErrDuplicatedKey
		}
	}
	m.mu.Unlock()
	m.add(course)
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetActiveByID(ctx context.Context, id string) (*model.Course, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockCourseRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.courses[id]
	return ok, nil
}

func (m *mockCourseRepo) ExistsByCode(_ context.Context, code string, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.courses {
		if c.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) sorted(keep func(*model.Course) bool) []model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Course
	for _, c := range m.courses {
		if keep(c) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	return m.sorted(func(*model.Course) bool { return true }), nil
}

func (m *mockCourseRepo) ListActive(_ context.Context) ([]model.Course, error) {
	m.listActiveCalls.Add(1)
	if m.listActiveGate != nil {
		<-m.listActiveGate
	}
	if m.listActiveErr != nil {
		return nil, m.listActiveErr
	}
	courses := m.sorted(func(c *model.Course) bool { return c.IsActive })
	if m.afterSnapshot != nil {
		m.afterSnapshot()
	}
	return courses, nil
}

func (m *mockCourseRepo) ListActiveFiltered(_ context.Context, q repository.CourseQuery) ([]model.Course, error) {
	m.listFilteredCalls.Add(1)
	kw := strings.ToLower(q.Keyword)
	return m.sorted(func(c *model.Course) bool {
		if !c.IsActive {
			return false
		}
		if kw != "" && !strings.Contains(strings.ToLower(c.Name), kw) && !strings.Contains(strings.ToLower(c.Code), kw) {
			return false
		}
		if q.MinCredits != nil && c.Credits < *q.MinCredits {
			return false
		}
		if q.MaxCredits != nil && c.Credits > *q.MaxCredits {
			return false
		}
		return true
	}), nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteOnUpdate {
		delete(m.courses, course.CourseID)
	}
	cur, ok := m.courses[course.CourseID]
	if !ok || cur.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for id, c := range m.courses {
		if id != course.CourseID && c.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	course.Version++
	cp := *course
	m.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) SetActive(_ context.Context, id string, active bool, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.IsActive = active
	c.UpdatedBy = &updatedBy
	c.Version++
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	mu          sync.Mutex
	courses     *mockCourseRepo
	enrollments []*model.Enrollment // 插入顺序即存储返回顺序
	seq         int

	createErr error
	readErr   error
}

func newMockEnrollmentRepo(courses *mockCourseRepo) *mockEnrollmentRepo {
	return &mockEnrollmentRepo{courses: courses}
}

// seed 直接写入一条记录，不经过唯一性检查
func (m *mockEnrollmentRepo) seed(courseID, studentID string, status model.EnrollmentStatus) *model.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := &model.Enrollment{
		EnrollmentID: "enr-" + studentID + "-" + courseID,
		CourseID:     courseID,
		StudentID:    studentID,
		Status:       status,
		RegisteredAt: time.Date(2025, 9, 1, 8, m.seq, 0, 0, time.UTC),
	}
	m.enrollments = append(m.enrollments, e)
	return e
}

func (m *mockEnrollmentRepo) withCourse(e *model.Enrollment) model.Enrollment {
	cp := *e
	if c, err := m.courses.GetByID(context.Background(), e.CourseID); err == nil {
		cp.Course = c
	}
	return cp
}

func (m *mockEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.CourseID == enrollment.CourseID && e.StudentID == enrollment.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if enrollment.EnrollmentID == "" {
		enrollment.EnrollmentID = "enr-" + enrollment.StudentID + "-" + enrollment.CourseID
	}
	cp := *enrollment
	cp.Course = nil
	m.enrollments = append(m.enrollments, &cp)
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.EnrollmentID == id {
			cp := m.withCourse(e)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) GetByCourseAndStudent(_ context.Context, courseID, studentID string) (*model.Enrollment, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) CountByCourseAndStatus(_ context.Context, courseID string, status model.EnrollmentStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) ListScheduledByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID != studentID || e.Status == model.EnrollmentCancelled {
			continue
		}
		cp := m.withCourse(e)
		if cp.Course == nil || !cp.Course.IsActive {
			continue
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Enrollment
	for i := len(m.enrollments) - 1; i >= 0; i-- {
		if e := m.enrollments[i]; e.StudentID == studentID {
			result = append(result, m.withCourse(e))
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) List(_ context.Context, courseID string) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Enrollment
	for i := len(m.enrollments) - 1; i >= 0; i-- {
		if e := m.enrollments[i]; courseID == "" || e.CourseID == courseID {
			result = append(result, m.withCourse(e))
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) UpdateStatus(_ context.Context, id string, status model.EnrollmentStatus, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.EnrollmentID == id {
			e.Status = status
			e.UpdatedBy = &updatedBy
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Cache 替身 ──

var errCacheDown = errors.New("cache: connection refused")

// failingStore 所有操作均失败
type failingStore struct {
	gets, sets, deletes atomic.Int32
}

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	f.gets.Add(1)
	return nil, errCacheDown
}

func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	f.sets.Add(1)
	return errCacheDown
}

func (f *failingStore) Delete(context.Context, string) error {
	f.deletes.Add(1)
	return errCacheDown
}

// ── 测试数据 ──

func newTestCourse(code, name string, credits int, start, end model.TimeOfDay) *model.Course {
	return &model.Course{
		CourseID:    "course-" + code,
		Code:        code,
		Name:        name,
		Credits:     credits,
		MaxCapacity: 30,
		StartTime:   start,
		EndTime:     end,
		IsActive:    true,
	}
}

// seedDemoCourses MAT101 08-10、PROG101 10-12、FIS101 14-16
func seedDemoCourses(courses *mockCourseRepo) (mat, prog, fis *model.Course) {
	mat = courses.add(newTestCourse("MAT101", "Matemáticas Básicas", 4, model.NewTimeOfDay(8, 0), model.NewTimeOfDay(10, 0)))
	prog = courses.add(newTestCourse("PROG101", "Programación I", 5, model.NewTimeOfDay(10, 0), model.NewTimeOfDay(12, 0)))
	fis = courses.add(newTestCourse("FIS101", "Física General", 2, model.NewTimeOfDay(14, 0), model.NewTimeOfDay(16, 0)))
	return mat, prog, fis
}
