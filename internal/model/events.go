package model

import (
	"encoding/json"
	"strings"
	"time"
)

// TimestampLayout ISO-8601，毫秒精度，与浏览器 Date.toISOString 一致
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// EventType 安全事件类型 (开放词表，观察器只使用下面这些)
type EventType string

const (
	EventCSPViolation     EventType = "csp_violation"
	EventDOMTampering     EventType = "dom_tampering"
	EventElementInjection EventType = "element_injection"
	EventDevToolsAttempts EventType = "dev_tools_attempts"
	EventInvalidLink      EventType = "invalid_link"
	EventSuspiciousHash   EventType = "suspicious_hash"
	EventContentDrop      EventType = "content_drop_prevented"
	EventMaliciousPaste   EventType = "malicious_paste_blocked"
	EventNavigation       EventType = "navigation_attempt"
)

// Severity 由产生事件的观察器在创建时设置
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Details 自由格式的负载，值只放基本类型或字符串
type Details map[string]any

// SecurityEvent 一次观察到的事件
type SecurityEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event"`
	Severity  Severity  `json:"severity,omitempty"`
	Details   Details   `json:"details,omitempty"`
	SessionID string    `json:"sessionId"`
	UserAgent string    `json:"userAgent"`
	URL       string    `json:"url"`
}

// MarshalJSON 时间戳按 TimestampLayout 输出
func (e SecurityEvent) MarshalJSON() ([]byte, error) {
	type plain SecurityEvent
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		plain
	}{
		Timestamp: e.Timestamp.Format(TimestampLayout),
		plain:     plain(e),
	})
}

// Level 返回事件的严重级别。
// 旧记录没有 severity 字段时按事件名归类。
func (e SecurityEvent) Level() Severity {
	if e.Severity != "" {
		return e.Severity
	}
	return ClassifyByName(e.EventType)
}

// ClassifyByName 按事件名的子串归类
func ClassifyByName(t EventType) Severity {
	name := string(t)
	switch {
	case containsAny(name, "violation", "tampering", "injection"):
		return SeverityError
	case containsAny(name, "blocked", "prevented", "suspicious"):
		return SeverityWarning
	}
	return SeverityInfo
}

// IsBlocked 被拦截或被阻止的事件 (仪表盘的 blocked-attempts 计数)
func (t EventType) IsBlocked() bool {
	return containsAny(string(t), "blocked", "prevented")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
