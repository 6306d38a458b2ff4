package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/service"
	"course-enrollment/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster 导出课程花名册
// GET /api/v1/coordinator/export/roster?course_id=xxx
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	var req dto.RosterExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "course_id 缺失或格式不正确")
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), req.CourseID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportMyCalendar 导出当前学生课表
// GET /api/v1/enrollments/me/calendar.ics
func (h *ExportHandler) ExportMyCalendar(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportMyCalendar(c.Request.Context(), studentID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func setAttachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 23001, "课程不存在")
	default:
		response.InternalError(c)
	}
}
