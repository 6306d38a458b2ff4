package dto

// ── 课程响应 ──

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	MaxCapacity int    `json:"max_capacity"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsActive    bool   `json:"is_active"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CourseBrief 课程简要信息（嵌入选课响应）
type CourseBrief struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

// ── 选课响应 ──

// EnrollmentResponse 选课记录响应
type EnrollmentResponse struct {
	ID           string       `json:"id"`
	CourseID     string       `json:"course_id"`
	StudentID    string       `json:"student_id"`
	Status       string       `json:"status"`
	RegisteredAt string       `json:"registered_at"`
	Course       *CourseBrief `json:"course,omitempty"`
}

// CacheInvalidateResponse 清除目录缓存响应
type CacheInvalidateResponse struct {
	Invalidated bool `json:"invalidated"`
}
