package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseConfig_Defaults(t *testing.T) {
	c, err := ParseConfig([]byte("revision:\n  diff-enabled: true\n  self-purge-window: 2h\n"))
	require.NoError(t, err)

	assert.Equal(t, "redis", c.Store.Type)
	assert.Equal(t, ":9100", c.Server.HttpPort)
	assert.Equal(t, "0 4 * * *", c.Revision.SweepCron)
	assert.Equal(t, 7*24*time.Hour, c.GetTokenExpiry())
	assert.Equal(t, time.Second, c.Limiter.FillInterval)

	svc := c.GetRevisionServiceConfig()
	assert.True(t, svc.DiffEnabled)
	assert.Equal(t, 2*time.Hour, svc.SelfPurgeWindow)
	assert.Equal(t, 10*time.Second, svc.MigrateTimeout)

	wp := c.GetWorkerPoolConfig()
	assert.Equal(t, 8, wp.MaxWorkers)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("revision:\n  self-purge-window: soon\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("revision:\n  migrate-timeout: later\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("server: ["))
	assert.Error(t, err)
}

func TestConfig_SaveAndLoad(t *testing.T) {
	c, err := ParseConfig(nil)
	require.NoError(t, err)
	c.File = filepath.Join(t.TempDir(), "config.yaml")
	c.Security.HookToken = "hook"
	c.Store.Type = "badger"
	require.NoError(t, c.Save())

	loaded, path, err := LoadConfig(c.File)
	require.NoError(t, err)
	assert.Equal(t, c.File, path)
	assert.Equal(t, "hook", loaded.Security.HookToken)
	assert.Equal(t, "badger", loaded.Store.Type)

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestParseConfig_ExplicitFalseSurvives(t *testing.T) {
	c, err := ParseConfig([]byte("revision:\n  sweep-enabled: false\ntracer:\n  enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, c.Revision.SweepEnabled)
	assert.False(t, c.Tracer.Enabled)
	assert.True(t, c.Limiter.Enabled)
}

func TestGetLimiterRules(t *testing.T) {
	c, err := ParseConfig(nil)
	require.NoError(t, err)
	rules := c.GetLimiterRules("/a", "/b")
	require.Len(t, rules, 2)
	assert.Equal(t, "/b", rules[1].Key)
	assert.EqualValues(t, 50, rules[1].Capacity)

	c.Limiter.Enabled = false
	assert.Empty(t, c.GetLimiterRules("/a"))
}

func newTestApp(t *testing.T) (*App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := redisstore.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 50)

	c, err := ParseConfig(nil)
	require.NoError(t, err)
	a, err := NewApp(c, zap.NewNop(), store)
	require.NoError(t, err)
	return a, mr
}

func TestNewApp_Requires(t *testing.T) {
	c, _ := ParseConfig(nil)
	_, err := NewApp(nil, zap.NewNop(), nil)
	assert.Error(t, err)
	_, err = NewApp(c, nil, nil)
	assert.Error(t, err)
	_, err = NewApp(c, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestApp_SweepLegacyAndShutdown(t *testing.T) {
	a, mr := newTestApp(t)
	ctx := context.Background()

	for _, pid := range []int64{3, 4} {
		require.NoError(t, a.Store.AddTimeOrdered(ctx, dao.LegacyKey(pid), 100, `{"content":"old","uid":1}`))
	}
	result, err := a.SweepLegacy(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Scanned)
	assert.EqualValues(t, 2, result.Migrated)
	assert.False(t, mr.Exists(dao.LegacyKey(3)))
	assert.True(t, mr.Exists(dao.HistoryKey(4)))

	require.NoError(t, a.Shutdown(ctx))
	assert.True(t, a.IsShuttingDown())
	// second shutdown is a no-op
	require.NoError(t, a.Shutdown(ctx))
}
