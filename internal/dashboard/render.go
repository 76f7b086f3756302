package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Hara602/pageSentry/internal/model"
	"github.com/avct/uasurfer"
)

// EmptyMessage 日志为空时的提示
const EmptyMessage = "No security events logged yet"

// Entry 一条渲染后的事件
type Entry struct {
	Severity  model.Severity `json:"severity"`
	Timestamp string         `json:"timestamp"`
	Title     string         `json:"title"`
	Details   string         `json:"details,omitempty"`
	Browser   string         `json:"browser,omitempty"`
	Text      string         `json:"text"`
}

// FormatEntry 时间、事件名 (大写、下划线换空格)、详情 JSON
func FormatEntry(e model.SecurityEvent, loc *time.Location) Entry {
	entry := Entry{
		Severity:  e.Level(),
		Timestamp: e.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
		Title:     strings.ToUpper(strings.ReplaceAll(string(e.EventType), "_", " ")),
		Browser:   BrowserSummary(e.UserAgent),
	}
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			entry.Details = string(b)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n%s", strings.ToUpper(string(entry.Severity)), entry.Timestamp, entry.Title)
	if entry.Details != "" {
		sb.WriteString(": ")
		sb.WriteString(entry.Details)
	}
	if entry.Browser != "" {
		sb.WriteString("\n")
		sb.WriteString(entry.Browser)
	}
	entry.Text = sb.String()
	return entry
}

// BrowserSummary 例如 "Chrome 120.0 on macOS 10.15"，无法识别时为空
func BrowserSummary(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := uasurfer.Parse(userAgent)
	if ua.Browser.Name == uasurfer.BrowserUnknown {
		return ""
	}
	browser := fmt.Sprintf("%s %d.%d", ua.Browser.Name.StringTrimPrefix(), ua.Browser.Version.Major, ua.Browser.Version.Minor)
	if ua.OS.Name == uasurfer.OSUnknown {
		return browser
	}
	return fmt.Sprintf("%s on %s %d.%d", browser, ua.OS.Name.StringTrimPrefix(), ua.OS.Version.Major, ua.OS.Version.Minor)
}
