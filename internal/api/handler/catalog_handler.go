package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-enrollment/internal/dto"
	"course-enrollment/internal/service"
	"course-enrollment/pkg/response"
)

// CatalogHandler 课程目录 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListCatalog 获取启用课程目录，支持 name / min_credits / max_credits / from / to 筛选
// GET /api/v1/catalog
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	var filter dto.CatalogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	courses, err := h.catalogSvc.List(c.Request.Context(), &filter)
	if err != nil {
		if writeValidationError(c, 20002, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OKList(c, courses, len(courses))
}

// GetCourse 学生查看课程详情
// GET /api/v1/catalog/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, ok := MustGetPathID(c, 20001, "课程不存在")
	if !ok {
		return
	}

	course, err := h.catalogSvc.GetActiveCourse(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.NotFound(c, 20001, "课程不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, course)
}

// InvalidateCache 协调员手动清除目录缓存
// DELETE /api/v1/coordinator/catalog/cache
func (h *CatalogHandler) InvalidateCache(c *gin.Context) {
	h.catalogSvc.Invalidate(c.Request.Context())
	response.OK(c, dto.CacheInvalidateResponse{Invalidated: true})
}
