package watcher

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/Hara602/pageSentry/internal/model"
)

// DevToolsThreshold 超过该次数后开始记录
const DevToolsThreshold = 3

// ContextMenuGuard 非开发主机上屏蔽右键菜单，不记录事件
type ContextMenuGuard struct {
	devHost bool
}

func (g *ContextMenuGuard) OnContextMenu() model.Decision {
	return model.Decision{PreventDefault: !g.devHost}
}

// KeyboardGuard 拦截打开开发者工具的快捷键
type KeyboardGuard struct {
	rec      Recorder
	devHost  bool
	attempts atomic.Int64
}

// OnKeyDown 匹配快捷键时阻止默认行为并计数，计数超过阈值后每次都记录
func (g *KeyboardGuard) OnKeyDown(ctx context.Context, k model.KeyPress) model.Decision {
	if g.devHost || !IsInspectShortcut(k) {
		return model.Decision{}
	}
	n := g.attempts.Add(1)
	if n > DevToolsThreshold {
		g.rec.Record(ctx, model.EventDevToolsAttempts, model.SeverityWarning, model.Details{"count": n})
	}
	return model.Decision{PreventDefault: true}
}

// Attempts 本次页面加载内的拦截次数
func (g *KeyboardGuard) Attempts() int64 {
	return g.attempts.Load()
}

// IsInspectShortcut F12, Ctrl+Shift+I/J/C, Ctrl+U (Meta 等同 Ctrl)
func IsInspectShortcut(k model.KeyPress) bool {
	key := strings.ToUpper(k.Key)
	if key == "F12" {
		return true
	}
	ctrl := k.Ctrl || k.Meta
	if !ctrl {
		return false
	}
	if k.Shift {
		switch key {
		case "I", "J", "C":
			return true
		}
		return false
	}
	return key == "U"
}
