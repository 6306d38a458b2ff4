package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/service"
	"course-enrollment/pkg/response"
)

// CourseHandler 协调员课程管理 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 全部课程（含停用）
// GET /api/v1/coordinator/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, courses, len(courses))
}

// GetCourse 课程详情（含停用），编辑前加载 version
// GET /api/v1/coordinator/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := MustGetPathID(c, 21001, "课程不存在")
	if !ok {
		return
	}

	course, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse 创建课程
// POST /api/v1/coordinator/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, course)
}

// UpdateCourse 编辑课程
// PUT /api/v1/coordinator/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := MustGetPathID(c, 21001, "课程不存在")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// ActivateCourse 启用课程
// PUT /api/v1/coordinator/courses/:id/activate
func (h *CourseHandler) ActivateCourse(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateCourse 停用课程
// PUT /api/v1/coordinator/courses/:id/deactivate
func (h *CourseHandler) DeactivateCourse(c *gin.Context) {
	h.setActive(c, false)
}

func (h *CourseHandler) setActive(c *gin.Context, active bool) {
	id, ok := MustGetPathID(c, 21001, "课程不存在")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.SetActive(c.Request.Context(), id, active, callerID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// handleCourseError 统一处理课程模块业务错误
func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	if writeValidationError(c, 21002, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 21001, "课程不存在")
	case errors.Is(err, service.ErrCourseConflict):
		response.Conflict(c, 21003, "课程已被其他协调员修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
