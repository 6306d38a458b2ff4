package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-enrollment/internal/model"
	"course-enrollment/internal/repository"
)

// ── 测试辅助 ──

func setupTestExportService() (*exportService, *mockCourseRepo, *mockEnrollmentRepo) {
	courseRepo := newMockCourseRepo()
	enrollRepo := newMockEnrollmentRepo(courseRepo)
	repo := &repository.Repository{
		Course:     courseRepo,
		Enrollment: enrollRepo,
	}
	svc := NewExportService(repo, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return fixedNow }
	return svc, courseRepo, enrollRepo
}

// ── ExportRoster 测试 ──

func TestExportService_ExportRoster_CourseNotFound(t *testing.T) {
	svc, _, _ := setupTestExportService()

	_, _, err := svc.ExportRoster(context.Background(), "nonexistent")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestExportService_ExportRoster_Success(t *testing.T) {
	svc, courseRepo, enrollRepo := setupTestExportService()
	mat, _, _ := seedDemoCourses(courseRepo)
	enrollRepo.seed(mat.CourseID, "S1", model.EnrollmentConfirmed)
	enrollRepo.seed(mat.CourseID, "S2", model.EnrollmentPending)

	buf, filename, err := svc.ExportRoster(context.Background(), mat.CourseID)
	if err != nil {
		t.Fatalf("ExportRoster 应成功: %v", err)
	}
	if filename != "花名册_MAT101.xlsx" {
		t.Errorf("期望文件名 花名册_MAT101.xlsx，实际=%s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应为合法 xlsx: %v", err)
	}
	defer f.Close()

	title, _ := f.GetCellValue("花名册", "A1")
	if !strings.Contains(title, "MAT101") || !strings.Contains(title, "08:00-10:00") {
		t.Errorf("标题应包含课程代码与时间，实际=%s", title)
	}

	rows, err := f.GetRows("花名册")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 标题 + 表头 + 2 条数据 + 合计
	if len(rows) != 5 {
		t.Fatalf("期望 5 行，实际 %d 行", len(rows))
	}
	if rows[2][1] != "S2" || rows[2][2] != "待确认" {
		t.Errorf("期望首条数据为最新的 S2/待确认，实际=%v", rows[2])
	}
	if !strings.Contains(rows[4][1], "已确认 1 / 容量 30") {
		t.Errorf("合计行不正确: %v", rows[4])
	}
}

// ── ExportMyCalendar 测试 ──

func TestExportService_ExportMyCalendar(t *testing.T) {
	svc, courseRepo, enrollRepo := setupTestExportService()
	mat, prog, fis := seedDemoCourses(courseRepo)
	enrollRepo.seed(mat.CourseID, "S1", model.EnrollmentConfirmed)
	enrollRepo.seed(prog.CourseID, "S1", model.EnrollmentCancelled)
	enrollRepo.seed(fis.CourseID, "S1", model.EnrollmentPending)

	data, filename, err := svc.ExportMyCalendar(context.Background(), "S1")
	if err != nil {
		t.Fatalf("ExportMyCalendar 应成功: %v", err)
	}
	if filename != "课表_S1.ics" {
		t.Errorf("期望文件名 课表_S1.ics，实际=%s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("生成的内容应为合法 iCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("已取消的选课不应导出，期望 2 个事件，实际 %d 个", len(events))
	}

	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	if summary == nil || !strings.Contains(summary.Value, "MAT101") {
		t.Errorf("首个事件应为 MAT101，实际: %v", summary)
	}
	start, err := events[0].GetStartAt()
	if err != nil {
		t.Fatalf("读取开始时间失败: %v", err)
	}
	if start.UTC().Hour() != 8 {
		t.Errorf("期望 08 点开始，实际=%v", start)
	}
	if rrule := events[0].GetProperty(ics.ComponentPropertyRrule); rrule == nil || rrule.Value != "FREQ=DAILY" {
		t.Errorf("期望按天重复，实际: %v", rrule)
	}
}
