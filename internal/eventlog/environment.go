package eventlog

import "sync"

// Environment 事件创建时采集的 userAgent 和页面 URL，导航后由宿主更新
type Environment struct {
	mu        sync.RWMutex
	userAgent string
	url       string
}

func NewEnvironment(userAgent, url string) *Environment {
	return &Environment{userAgent: userAgent, url: url}
}

func (e *Environment) SetURL(url string) {
	e.mu.Lock()
	e.url = url
	e.mu.Unlock()
}

func (e *Environment) Snapshot() (userAgent, url string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.userAgent, e.url
}
