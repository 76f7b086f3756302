package watcher

import (
	"context"
	"sync"

	"github.com/Hara602/pageSentry/internal/model"
	"go.uber.org/zap"
)

// CSPListener 记录内容安全策略违规
type CSPListener struct {
	rec    Recorder
	logger *zap.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func (l *CSPListener) Start(ctx context.Context, src ViolationSource) error {
	if src == nil {
		return ErrUnsupported
	}
	unsub, err := src.Subscribe(func(v model.Violation) {
		safely(l.logger, "csp", func() { l.OnViolation(ctx, v) })
	})
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.unsubscribe = unsub
	l.mu.Unlock()
	return nil
}

func (l *CSPListener) OnViolation(ctx context.Context, v model.Violation) {
	details := model.Details{
		"blockedURI":        v.BlockedURI,
		"violatedDirective": v.ViolatedDirective,
	}
	if v.SourceFile != "" {
		details["sourceFile"] = v.SourceFile
	}
	if v.LineNumber > 0 {
		details["lineNumber"] = v.LineNumber
	}
	l.rec.Record(ctx, model.EventCSPViolation, model.SeverityError, details)
}

func (l *CSPListener) Stop() {
	l.mu.Lock()
	unsub := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
