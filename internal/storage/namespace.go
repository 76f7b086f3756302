package storage

import (
	"context"
	"errors"
	"sync"
)

// Namespaced 给每个 key 加前缀，使多个标签页共享同一个后端。
// maxBytes > 0 时配额按命名空间计算，一个标签页写满不影响其他标签页。
type Namespaced struct {
	base     Store
	prefix   string
	maxBytes int

	mu    sync.Mutex
	sizes map[string]int // 本命名空间见过的 key 及其 key+value 长度
}

func Namespace(base Store, ns string, maxBytes int) *Namespaced {
	return &Namespaced{base: base, prefix: ns + ":", maxBytes: maxBytes, sizes: make(map[string]int)}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := n.base.Get(ctx, n.prefix+key)
	if err == nil && ok {
		// 进程重启后重新挂载的数据也要计入配额，并能被 Clear 删除
		n.mu.Lock()
		n.sizes[key] = len(key) + len(v)
		n.mu.Unlock()
	}
	return v, ok, err
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry := len(key) + len(value)
	if n.maxBytes > 0 && n.used()-n.sizes[key]+entry > n.maxBytes {
		return ErrQuotaExceeded
	}
	if err := n.base.Set(ctx, n.prefix+key, value); err != nil {
		return err
	}
	n.sizes[key] = entry
	return nil
}

func (n *Namespaced) Remove(ctx context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.base.Remove(ctx, n.prefix+key); err != nil {
		return err
	}
	delete(n.sizes, key)
	return nil
}

// Clear 删除命名空间下的全部 key，标签页结束时调用
func (n *Namespaced) Clear(ctx context.Context, known ...string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	keys := make(map[string]struct{}, len(n.sizes)+len(known))
	for k := range n.sizes {
		keys[k] = struct{}{}
	}
	for _, k := range known {
		keys[k] = struct{}{}
	}
	var errs []error
	for k := range keys {
		if err := n.base.Remove(ctx, n.prefix+k); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(n.sizes, k)
	}
	return errors.Join(errs...)
}

// Used 命名空间当前占用的字节数
func (n *Namespaced) Used() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.used()
}

func (n *Namespaced) used() int {
	total := 0
	for _, s := range n.sizes {
		total += s
	}
	return total
}
