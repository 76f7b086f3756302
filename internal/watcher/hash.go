package watcher

import (
	"context"

	"github.com/Hara602/pageSentry/internal/analysis"
	"github.com/Hara602/pageSentry/internal/model"
)

// HashGuard 片段中出现脚本时记录并要求宿主清空 location.hash
type HashGuard struct {
	rec Recorder
}

func (g *HashGuard) OnHashChange(ctx context.Context, hash string) model.Decision {
	if !analysis.ContainsScript(hash) {
		return model.Decision{}
	}
	g.rec.Record(ctx, model.EventSuspiciousHash, model.SeverityWarning, model.Details{"hash": hash})
	return model.Decision{ClearHash: true}
}
