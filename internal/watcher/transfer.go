package watcher

import (
	"context"
	"sort"
	"strings"

	"github.com/Hara602/pageSentry/internal/analysis"
	"github.com/Hara602/pageSentry/internal/model"
)

// TransferGuard 拖放和粘贴
type TransferGuard struct {
	rec       Recorder
	inspector *analysis.TypeInspector
}

// NewTransferGuard aliases 为部署方追加的 "真实类型 -> 允许的后缀"
func NewTransferGuard(rec Recorder, aliases map[string][]string) *TransferGuard {
	inspector := analysis.NewTypeInspector()
	for realType, exts := range aliases {
		for _, ext := range exts {
			inspector.AddAlias(realType, ext)
		}
	}
	return &TransferGuard{rec: rec, inspector: inspector}
}

// OnDragOver 总是阻止
func (g *TransferGuard) OnDragOver() model.Decision {
	return model.Decision{PreventDefault: true}
}

// OnDrop 总是阻止并记录，附带按文件头识别出的真实类型
func (g *TransferGuard) OnDrop(ctx context.Context, files []model.DroppedFile) model.Decision {
	kinds := map[string]bool{}
	masquerade := 0
	for _, f := range files {
		res := g.inspector.InspectHead(f.Name, f.Head)
		kinds[res.RealExt] = true
		if res.IsMasquerade {
			masquerade++
		}
	}
	types := make([]string, 0, len(kinds))
	for k := range kinds {
		types = append(types, k)
	}
	sort.Strings(types)

	details := model.Details{"files": len(files)}
	if len(types) > 0 {
		details["types"] = strings.Join(types, ",")
	}
	if masquerade > 0 {
		details["masquerade"] = masquerade
	}
	g.rec.Record(ctx, model.EventContentDrop, model.SeverityWarning, details)
	return model.Decision{PreventDefault: true}
}

// OnPaste 剪贴板文本含脚本时阻止粘贴
func (g *TransferGuard) OnPaste(ctx context.Context, text string) model.Decision {
	if !analysis.ContainsScript(text) {
		return model.Decision{}
	}
	g.rec.Record(ctx, model.EventMaliciousPaste, model.SeverityWarning, model.Details{
		"content": analysis.Truncate(text, analysis.ExcerptLimit),
	})
	return model.Decision{PreventDefault: true}
}
