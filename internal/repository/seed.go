package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-enrollment/internal/model"
)

// demoCourses 演示课程，仅在课程表为空时写入
var demoCourses = []model.Course{
	{Code: "MAT101", Name: "Matemáticas Básicas", Credits: 4, MaxCapacity: 30, StartTime: model.NewTimeOfDay(8, 0), EndTime: model.NewTimeOfDay(10, 0), IsActive: true},
	{Code: "PROG101", Name: "Programación I", Credits: 5, MaxCapacity: 25, StartTime: model.NewTimeOfDay(10, 0), EndTime: model.NewTimeOfDay(12, 0), IsActive: true},
	{Code: "FIS101", Name: "Física General", Credits: 4, MaxCapacity: 35, StartTime: model.NewTimeOfDay(14, 0), EndTime: model.NewTimeOfDay(16, 0), IsActive: true},
}

// SeedDemoData 写入演示课程，返回实际写入条数
func SeedDemoData(ctx context.Context, db *gorm.DB, logger *zap.Logger) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Course{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计课程失败: %w", err)
	}
	if count > 0 {
		logger.Info("课程表非空，跳过演示数据", zap.Int64("existing", count))
		return 0, nil
	}

	courses := make([]model.Course, len(demoCourses))
	copy(courses, demoCourses)

	if err := db.WithContext(ctx).Create(&courses).Error; err != nil {
		return 0, fmt.Errorf("写入演示课程失败: %w", err)
	}

	logger.Info("演示课程写入完成", zap.Int("count", len(courses)))
	return len(courses), nil
}
