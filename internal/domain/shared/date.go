package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout 日期的线上格式
const DateLayout = "2006-01-02"

// Date 只有日期部分的时间（出版日期）
// JSON格式为"2006-01-02"，解析时也接受RFC3339
type Date struct {
	time.Time
}

// NewDate 截断到UTC零点
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate 解析日期字符串
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("无效的日期 %q", s)
	}
	return NewDate(t), nil
}

// String 日期字符串
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON 输出"2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON 解析"2006-01-02"或RFC3339
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
