package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	pkgerrors "course-enrollment/pkg/errors"
)

// ── 课程与选课业务错误 ──

var (
	ErrCourseNotFound     = errors.New("课程不存在")
	ErrCourseUnavailable  = errors.New("课程不存在或已停用")
	ErrCourseConflict     = fmt.Errorf("课程已被其他协调员修改: %w", pkgerrors.ErrOptimisticLock)
	ErrEnrollmentNotFound = errors.New("选课记录不存在")
	ErrEnrollmentFailed   = errors.New("选课暂时失败，请稍后重试")
	ErrEnrollmentTerminal = errors.New("选课记录已确认或已取消，不能再次变更")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ValidationError 字段级校验错误，无任何副作用
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// orNil 没有字段错误时返回 nil
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RejectionReason 选课被拒原因
type RejectionReason string

const (
	RejectAlreadyEnrolled  RejectionReason = "already_enrolled"
	RejectCourseFull       RejectionReason = "course_full"
	RejectScheduleConflict RejectionReason = "schedule_conflict"
)

// EnrollmentRejection 选课业务拒绝（重复、满员、时间冲突）
type EnrollmentRejection struct {
	Reason         RejectionReason
	CourseName     string
	Capacity       int
	ConflictCourse string
}

func (e *EnrollmentRejection) Error() string {
	switch e.Reason {
	case RejectAlreadyEnrolled:
		return fmt.Sprintf("你已选过课程「%s」", e.CourseName)
	case RejectCourseFull:
		return fmt.Sprintf("课程「%s」已满（容量 %d 人）", e.CourseName, e.Capacity)
	case RejectScheduleConflict:
		return fmt.Sprintf("课程「%s」与已选课程「%s」上课时间冲突", e.CourseName, e.ConflictCourse)
	default:
		return fmt.Sprintf("无法选修课程「%s」", e.CourseName)
	}
}
