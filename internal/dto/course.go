package dto

// ── 课程模块 DTO（协调员） ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code        string `json:"code"         binding:"required,max=20"`
	Name        string `json:"name"         binding:"required,max=100"`
	Credits     int    `json:"credits"      binding:"required,min=1,max=10"`
	MaxCapacity int    `json:"max_capacity" binding:"required,min=1,max=100"`
	StartTime   string `json:"start_time"   binding:"required"` // "08:00"
	EndTime     string `json:"end_time"     binding:"required"` // "10:00"
}

// UpdateCourseRequest 编辑课程请求
// Version 为协调员加载课程时读到的版本号，用于乐观锁
type UpdateCourseRequest struct {
	Code        string `json:"code"         binding:"required,max=20"`
	Name        string `json:"name"         binding:"required,max=100"`
	Credits     int    `json:"credits"      binding:"required,min=1,max=10"`
	MaxCapacity int    `json:"max_capacity" binding:"required,min=1,max=100"`
	StartTime   string `json:"start_time"   binding:"required"`
	EndTime     string `json:"end_time"     binding:"required"`
	Version     int    `json:"version"      binding:"required,min=1"`
}
