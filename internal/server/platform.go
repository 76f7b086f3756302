package server

import (
	"sync"

	"github.com/Hara602/pageSentry/internal/model"
)

// 把 HTTP 上报的信号适配成 watcher 需要的平台 API

type mutationFeed struct {
	mu sync.Mutex
	fn func([]model.Node)
}

func (f *mutationFeed) Subscribe(fn func([]model.Node)) (func(), error) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.fn = nil
		f.mu.Unlock()
	}, nil
}

func (f *mutationFeed) deliver(nodes []model.Node) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(nodes)
	}
}

type violationFeed struct {
	mu sync.Mutex
	fn func(model.Violation)
}

func (f *violationFeed) Subscribe(fn func(model.Violation)) (func(), error) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.fn = nil
		f.mu.Unlock()
	}, nil
}

func (f *violationFeed) deliver(v model.Violation) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

// elementFeed 保存浏览器最近一次上报的元素数量
type elementFeed struct {
	mu     sync.Mutex
	counts model.ElementCounts
}

func (f *elementFeed) Count() (model.ElementCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts, nil
}

func (f *elementFeed) update(c model.ElementCounts) {
	f.mu.Lock()
	f.counts = c
	f.mu.Unlock()
}
