package watcher

import (
	"context"
	"strings"
	"sync"

	"github.com/Hara602/pageSentry/internal/analysis"
	"github.com/Hara602/pageSentry/internal/model"
	"go.uber.org/zap"
)

// 新增即视为注入的标签
var injectableTags = map[string]bool{
	"script": true,
	"iframe": true,
	"frame":  true,
	"object": true,
	"embed":  true,
}

// MutationGuard 监听新增的 script / frame 元素
type MutationGuard struct {
	rec    Recorder
	logger *zap.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func (g *MutationGuard) Start(ctx context.Context, n StructuralChangeNotifier) error {
	if n == nil {
		return ErrUnsupported
	}
	unsub, err := n.Subscribe(func(added []model.Node) {
		safely(g.logger, "mutation", func() { g.OnAdded(ctx, added) })
	})
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.unsubscribe = unsub
	g.mu.Unlock()
	return nil
}

// OnAdded 处理一批新增节点
func (g *MutationGuard) OnAdded(ctx context.Context, added []model.Node) {
	for _, node := range added {
		if !injectableTags[strings.ToLower(node.TagName)] {
			continue
		}
		payload := node.Src
		if payload == "" {
			payload = node.Content
		}
		g.rec.Record(ctx, model.EventElementInjection, model.SeverityError, model.Details{
			"tagName": node.TagName,
			"content": analysis.Truncate(payload, analysis.ExcerptLimit),
		})
	}
}

func (g *MutationGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unsubscribe != nil
}

func (g *MutationGuard) Stop() {
	g.mu.Lock()
	unsub := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
