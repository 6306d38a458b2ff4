package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrRateLimited 请求频率超限
var ErrRateLimited = errors.New("请求过于频繁，请稍后重试")
