package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, ok, err := m.Get(ctx, "securityLogs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "securityLogs", "[]"))
	v, ok, err := m.Get(ctx, "securityLogs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, m.Remove(ctx, "securityLogs"))
	_, ok, _ = m.Get(ctx, "securityLogs")
	assert.False(t, ok)
	assert.Equal(t, 0, m.size)
}

func TestMemory_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "k", "12345"))
	err := m.Set(ctx, "k", "1234567890")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "12345", v, "failed write keeps previous value")

	require.NoError(t, m.Set(ctx, "k", "123456789"))
}

func TestNamespace_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemory(0)
	a := Namespace(base, "tab-a", 0)
	b := Namespace(base, "tab-b", 0)

	require.NoError(t, a.Set(ctx, "securitySessionId", "session_a"))
	_, ok, _ := b.Get(ctx, "securitySessionId")
	assert.False(t, ok)

	v, ok, _ := base.Get(ctx, "tab-a:securitySessionId")
	assert.True(t, ok)
	assert.Equal(t, "session_a", v)

	require.NoError(t, a.Remove(ctx, "securitySessionId"))
	_, ok, _ = base.Get(ctx, "tab-a:securitySessionId")
	assert.False(t, ok)
}

func TestNamespace_QuotaIsPerNamespace(t *testing.T) {
	ctx := context.Background()
	base := NewMemory(0)
	a := Namespace(base, "tab-a", 32)
	b := Namespace(base, "tab-b", 32)

	require.NoError(t, a.Set(ctx, "securityLogs", strings.Repeat("x", 20)))
	assert.ErrorIs(t, a.Set(ctx, "securitySessionId", strings.Repeat("y", 20)), ErrQuotaExceeded)
	// 覆盖写只按差值计算
	require.NoError(t, a.Set(ctx, "securityLogs", strings.Repeat("x", 18)))
	assert.Equal(t, len("securityLogs")+18, a.Used())

	require.NoError(t, b.Set(ctx, "securityLogs", strings.Repeat("z", 20)))
	v, ok, err := b.Get(ctx, "securityLogs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, v, 20)
}

func TestNamespace_ClearRemovesOnlyItsKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemory(0)
	require.NoError(t, base.Set(ctx, "tab-a:securitySessionId", "session_old"))

	a := Namespace(base, "tab-a", 0)
	b := Namespace(base, "tab-b", 0)
	require.NoError(t, a.Set(ctx, "securityLogs", "[]"))
	require.NoError(t, b.Set(ctx, "securityLogs", "[]"))

	require.NoError(t, a.Clear(ctx, "securitySessionId"))
	_, ok, _ := base.Get(ctx, "tab-a:securityLogs")
	assert.False(t, ok)
	_, ok, _ = base.Get(ctx, "tab-a:securitySessionId")
	assert.False(t, ok, "known keys written before this process are removed too")
	_, ok, _ = base.Get(ctx, "tab-b:securityLogs")
	assert.True(t, ok)
	assert.Zero(t, a.Used())
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "securityLogs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "securityLogs", `[{"event":"csp_violation"}]`))
	require.NoError(t, s.Set(ctx, "securityLogs", `[]`))

	v, ok, err := s.Get(ctx, "securityLogs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, s.Remove(ctx, "securityLogs"))
	_, ok, err = s.Get(ctx, "securityLogs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	r := NewRedisWithClient(client, time.Hour)

	mock.ExpectGet("tab:securityLogs").RedisNil()
	mock.ExpectSet("tab:securityLogs", "[]", time.Hour).SetVal("OK")
	mock.ExpectGet("tab:securityLogs").SetVal("[]")
	mock.ExpectDel("tab:securityLogs").SetVal(1)

	_, ok, err := r.Get(ctx, "tab:securityLogs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "tab:securityLogs", "[]"))

	v, ok, err := r.Get(ctx, "tab:securityLogs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, r.Remove(ctx, "tab:securityLogs"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_ErrorsAreUnavailable(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	r := NewRedisWithClient(client, 0)

	mock.ExpectSet("k", "v", 0).SetErr(errors.New("connection refused"))

	err := r.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(Options{Backend: "etcd"})
	assert.Error(t, err)

	s, closeFn, err := Open(Options{Backend: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, closeFn())
}
