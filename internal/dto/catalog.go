package dto

import "strings"

// CatalogFilter 课程目录筛选参数（GET /catalog 查询串）
// 全部为空时走目录缓存，否则直接查库
type CatalogFilter struct {
	Name       string `form:"name"        binding:"omitempty,max=100"`
	MinCredits *int   `form:"min_credits" binding:"omitempty,min=0,max=10"`
	MaxCredits *int   `form:"max_credits" binding:"omitempty,min=0,max=10"`
	From       string `form:"from"` // 最早开课时刻 "08:00"
	To         string `form:"to"`   // 最晚下课时刻 "12:00"
}

// IsEmpty 是否未设置任何筛选条件
func (f *CatalogFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Name) == "" &&
		f.MinCredits == nil &&
		f.MaxCredits == nil &&
		strings.TrimSpace(f.From) == "" &&
		strings.TrimSpace(f.To) == ""
}
