package dto

// ── 选课模块 DTO ──

// CreateEnrollmentRequest 学生选课请求
type CreateEnrollmentRequest struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
}

// EnrollmentListRequest 协调员选课列表查询参数
type EnrollmentListRequest struct {
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
}

// RosterExportRequest 花名册导出参数
type RosterExportRequest struct {
	CourseID string `form:"course_id" binding:"required,uuid"`
}
