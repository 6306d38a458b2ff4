package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-enrollment/internal/model"
	"course-enrollment/internal/repository"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 协调员导出某门课程的选课花名册 (.xlsx)
//   - 学生导出自己的课表 (.ics)，课程只有每日上下课时刻，因此按天重复
//   - 导出内容以字节返回，由 Handler 层设置响应头后写出
type ExportService interface {
	// ExportRoster 导出课程花名册，返回 buf、建议文件名
	ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
	// ExportMyCalendar 导出学生当前课表（未取消且课程启用）
	ExportMyCalendar(ctx context.Context, studentID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, now: time.Now, logger: logger}
}

var statusNames = map[model.EnrollmentStatus]string{
	model.EnrollmentPending:   "待确认",
	model.EnrollmentConfirmed: "已确认",
	model.EnrollmentCancelled: "已取消",
}

// ═══════════════════════════════════════════════════════════
// ExportRoster：导出课程花名册为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：课程代码 课程名称（上课时间）
//   - 第 2 行：表头 序号 | 学生 | 状态 | 选课时间
//   - 数据行按选课时间倒序
//   - 末行：已确认人数 / 容量

func (s *exportService) ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	enrollments, err := s.repo.Enrollment.List(ctx, courseID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "花名册"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 24)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s（%s-%s）", course.Code, course.Name, course.StartTime, course.EndTime))
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"序号", "学生", "状态", "选课时间"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "D2", headerStyle)

	row := 3
	confirmed := 0
	for i, e := range enrollments {
		if e.Status == model.EnrollmentConfirmed {
			confirmed++
		}
		f.SetCellValue(sheetName, cell("A", row), i+1)
		f.SetCellValue(sheetName, cell("B", row), e.StudentID)
		f.SetCellValue(sheetName, cell("C", row), statusNames[e.Status])
		f.SetCellValue(sheetName, cell("D", row), e.RegisteredAt.Format("2006-01-02 15:04:05"))
		row++
	}

	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell("B", row), fmt.Sprintf("已确认 %d / 容量 %d", confirmed, course.MaxCapacity))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("花名册_%s.xlsx", course.Code)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportMyCalendar：导出学生课表为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportMyCalendar(ctx context.Context, studentID string) ([]byte, string, error) {
	scheduled, err := s.repo.Enrollment.ListScheduledByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, "", err
	}

	now := s.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-enrollment//timetable//CN")
	cal.SetXWRCalName("我的课表")

	for _, e := range scheduled {
		if e.Course == nil {
			continue
		}
		c := e.Course

		event := cal.AddEvent(e.EnrollmentID + "@course-enrollment")
		event.SetDtStampTime(now)
		event.SetStartAt(c.StartTime.On(day))
		event.SetEndAt(c.EndTime.On(day))
		event.SetSummary(fmt.Sprintf("%s %s", c.Code, c.Name))
		event.SetDescription(fmt.Sprintf("状态：%s", statusNames[e.Status]))
		event.AddRrule("FREQ=DAILY")
	}

	filename := fmt.Sprintf("课表_%s.ics", studentID)
	return []byte(cal.Serialize()), filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
