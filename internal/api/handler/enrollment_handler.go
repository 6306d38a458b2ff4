package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/service"
	"course-enrollment/pkg/response"
)

// EnrollmentHandler 选课 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// 选课被拒原因 → 业务码
var rejectionCodes = map[service.RejectionReason]int{
	service.RejectAlreadyEnrolled:  22002,
	service.RejectCourseFull:       22003,
	service.RejectScheduleConflict: 22004,
}

// Enroll 学生选课
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentSvc.Enroll(c.Request.Context(), studentID, req.CourseID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// ListMine 当前学生的选课记录
// GET /api/v1/enrollments/me
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.enrollmentSvc.ListMine(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, list, len(list))
}

// ListEnrollments 协调员查看选课记录，可按课程筛选
// GET /api/v1/coordinator/enrollments?course_id=xxx
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	var req dto.EnrollmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.enrollmentSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, list, len(list))
}

// Confirm 确认选课
// PUT /api/v1/coordinator/enrollments/:id/confirm
func (h *EnrollmentHandler) Confirm(c *gin.Context) {
	h.transition(c, h.enrollmentSvc.Confirm)
}

// Cancel 取消选课
// PUT /api/v1/coordinator/enrollments/:id/cancel
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.enrollmentSvc.Cancel)
}

type transitionFunc func(ctx context.Context, id string, callerID string) (*dto.EnrollmentResponse, error)

func (h *EnrollmentHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := MustGetPathID(c, 22005, "选课记录不存在")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	enrollment, err := fn(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, enrollment)
}

// handleEnrollmentError 统一处理选课模块业务错误
func (h *EnrollmentHandler) handleEnrollmentError(c *gin.Context, err error) {
	var rej *service.EnrollmentRejection
	if errors.As(err, &rej) {
		code, ok := rejectionCodes[rej.Reason]
		if !ok {
			code = 22000
		}
		response.Conflict(c, code, rej.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrCourseUnavailable):
		response.NotFound(c, 22001, "课程不存在或已停用")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 22005, "选课记录不存在")
	case errors.Is(err, service.ErrEnrollmentTerminal):
		response.Conflict(c, 22006, "选课记录已确认或已取消，不能再次变更")
	case errors.Is(err, service.ErrEnrollmentFailed):
		response.ServiceUnavailable(c, 22007, "选课暂时失败，请稍后重试")
	default:
		response.InternalError(c)
	}
}
