package analysis

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// ExcerptLimit 事件详情中用户内容的最大字符数
const ExcerptLimit = 100

// ContainsScript 文本中出现 <script 标签或 javascript: 协议即视为脚本负载。
// 大小写不敏感，并尝试一次百分号解码 (location.hash 是编码过的)。
func ContainsScript(text string) bool {
	if hasScriptMarker(text) {
		return true
	}
	if decoded, err := url.QueryUnescape(text); err == nil && decoded != text {
		return hasScriptMarker(decoded)
	}
	if decoded, err := url.PathUnescape(text); err == nil && decoded != text {
		return hasScriptMarker(decoded)
	}
	return false
}

func hasScriptMarker(s string) bool {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "<script") {
		return true
	}
	// 协议前可能夹杂空白，浏览器会忽略
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, lower)
	return strings.Contains(compact, "javascript:")
}

// Truncate 按字符截断，不切断多字节字符
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
