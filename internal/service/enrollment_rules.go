package service

import "course-enrollment/internal/model"

// ── 选课规则（纯函数，不访问存储） ──

// hasCapacity 已确认人数未达上限时可继续选课
// 待确认的选课不占用名额
func hasCapacity(course *model.Course, confirmed int64) bool {
	return confirmed < int64(course.MaxCapacity)
}

// findScheduleConflict 返回第一门与目标课程时间重叠的已选课程，按存储返回顺序
// scheduled 应只包含未取消且课程仍启用的选课记录
func findScheduleConflict(target *model.Course, scheduled []model.Enrollment) *model.Course {
	for i := range scheduled {
		other := scheduled[i].Course
		if other == nil || other.CourseID == target.CourseID {
			continue
		}
		if target.Overlaps(other) {
			return other
		}
	}
	return nil
}
