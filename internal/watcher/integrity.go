package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/Hara602/pageSentry/internal/model"
	"github.com/Hara602/pageSentry/internal/schedule"
	"go.uber.org/zap"
)

// IntegrityPoll 定期比较 script / style 数量与初始化时的基线
type IntegrityPoll struct {
	rec      Recorder
	interval time.Duration
	ticker   schedule.TickerFactory
	logger   *zap.Logger

	mu       sync.Mutex
	counter  ElementCounter
	baseline model.ElementCounts
	task     *schedule.Periodic
}

func (p *IntegrityPoll) Start(ctx context.Context, counter ElementCounter) error {
	if counter == nil {
		return ErrUnsupported
	}
	baseline, err := counter.Count()
	if err != nil {
		return err
	}
	task, err := schedule.NewPeriodic(p.interval, func(ctx context.Context, _ time.Time) {
		safely(p.logger, "integrity", func() { p.Check(ctx) })
	}, p.ticker)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.counter = counter
	p.baseline = baseline
	p.task = task
	p.mu.Unlock()

	task.Start(ctx)
	return nil
}

// Check 执行一次比较，任一数量增加即记录篡改
func (p *IntegrityPoll) Check(ctx context.Context) {
	p.mu.Lock()
	counter, before := p.counter, p.baseline
	p.mu.Unlock()
	if counter == nil {
		return
	}

	after, err := counter.Count()
	if err != nil {
		p.logger.Debug("element count unavailable", zap.Error(err))
		return
	}
	if after.Scripts > before.Scripts || after.Styles > before.Styles {
		p.rec.Record(ctx, model.EventDOMTampering, model.SeverityError, model.Details{
			"scriptsBefore": before.Scripts,
			"scriptsAfter":  after.Scripts,
			"stylesBefore":  before.Styles,
			"stylesAfter":   after.Styles,
		})
	}
}

func (p *IntegrityPoll) Baseline() model.ElementCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baseline
}

func (p *IntegrityPoll) Stop() {
	p.mu.Lock()
	task := p.task
	p.task = nil
	p.mu.Unlock()
	if task != nil {
		task.Stop()
	}
}
