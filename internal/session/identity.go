package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Hara602/pageSentry/internal/storage"
	"github.com/Hara602/pageSentry/internal/sysutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Key 会话令牌在会话存储中的 key
const Key = "securitySessionId"

// Identity 懒加载的会话令牌。
// 令牌只用于给事件打标签，不是安全边界。
type Identity struct {
	store  storage.Store
	clock  func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	cached string
}

func NewIdentity(store storage.Store, clock func() time.Time, logger *zap.Logger) *Identity {
	if clock == nil {
		clock = time.Now
	}
	return &Identity{store: store, clock: clock, logger: sysutil.OrNop(logger)}
}

// GetOrCreate 读取令牌，不存在时生成并保存。同一会话内多次调用返回同一个值。
func (i *Identity) GetOrCreate(ctx context.Context) string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if v, ok, err := i.store.Get(ctx, Key); err == nil && ok && v != "" {
		i.cached = v
		return v
	} else if err != nil {
		i.logger.Warn("session id read failed", zap.Error(err))
	}
	if i.cached != "" {
		// 存储不可用或被清空时沿用内存中的令牌
		return i.cached
	}

	token := newToken(i.clock())
	if err := i.store.Set(ctx, Key, token); err != nil {
		i.logger.Warn("session id not persisted", zap.Error(err))
	}
	i.cached = token
	return token
}

// newToken session_<毫秒时间戳>_<9 位小写字母数字>
func newToken(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}
