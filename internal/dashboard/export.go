package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Hara602/pageSentry/internal/model"
)

// ClearPrompt 清空前的确认提示
const ClearPrompt = "Are you sure you want to clear all security logs?"

// Confirmer 交互式确认
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc 函数适配为 Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ExportFileName security-logs-YYYY-MM-DD.json
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("security-logs-%s.json", now.UTC().Format("2006-01-02"))
}

// ExportLogs 以缩进 JSON 写出完整日志
func (r *Reader) ExportLogs(ctx context.Context, w io.Writer) error {
	logs := r.log.Events(ctx)
	if logs == nil {
		logs = []model.SecurityEvent{}
	}
	data, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode security logs: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write security logs: %w", err)
	}
	return nil
}

// ClearLogs 确认后删除整个日志并重新渲染，不可撤销
func (r *Reader) ClearLogs(ctx context.Context, c Confirmer) (bool, error) {
	if c == nil || !c.Confirm(ClearPrompt) {
		return false, nil
	}
	if err := r.log.Clear(ctx); err != nil {
		return false, fmt.Errorf("clear security logs: %w", err)
	}
	r.logger.Info("🧹 Security logs cleared")
	r.Refresh(ctx)
	return true, nil
}
