package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixture wires the real repositories to an in-process redis
type fixture struct {
	t     *testing.T
	ctx   context.Context
	mr    *miniredis.Miniredis
	store kvstore.Store
	svc   *revisionService
}

var fixtureNow = time.UnixMilli(1_700_000_000_000)

func newFixture(t *testing.T, cfg *RevisionServiceConfig) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := redisstore.NewWithClient(client, 50)
	t.Cleanup(func() { _ = store.Close() })

	d := dao.New(store, zap.NewNop())
	svc := NewRevisionService(
		dao.NewRevisionRepository(d),
		dao.NewPostRepository(d),
		dao.NewTopicRepository(d),
		dao.NewUserRepository(d),
		dao.NewPrivilegeRepository(d),
		zap.NewNop(),
		cfg,
	).(*revisionService)
	svc.now = func() time.Time { return fixtureNow }

	return &fixture{t: t, ctx: context.Background(), mr: mr, store: store, svc: svc}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func (f *fixture) hset(key string, fields map[string]string) {
	f.t.Helper()
	require.NoError(f.t, f.store.SetFieldMap(f.ctx, key, fields))
}

type postSeed struct {
	pid, uid, tid int64
	content       string
	timestamp     int64
	edited        int64
	editor        int64
}

func (f *fixture) post(p postSeed) {
	f.t.Helper()
	fields := map[string]string{
		"pid":       itoa(p.pid),
		"uid":       itoa(p.uid),
		"tid":       itoa(p.tid),
		"content":   p.content,
		"timestamp": itoa(p.timestamp),
	}
	if p.edited > 0 {
		fields["edited"] = itoa(p.edited)
		fields["editor"] = itoa(p.editor)
	}
	f.hset(dao.PostKey(p.pid), fields)
}

func (f *fixture) topic(tid, cid int64, title string) {
	f.hset(dao.TopicKey(tid), map[string]string{"cid": itoa(cid), "title": title})
}

func (f *fixture) user(uid int64, name string) {
	f.hset(dao.UserKey(uid), map[string]string{"username": name, "userslug": name})
}

func (f *fixture) visible(uid int64, on bool) {
	v := "0"
	if on {
		v = "1"
	}
	f.hset(dao.UserSettingsKey(uid), map[string]string{dao.FieldPostEditHistoryVisible: v})
}

func (f *fixture) admin(uid int64) {
	require.NoError(f.t, f.store.AddSetMembers(f.ctx, dao.AdministratorsKey(), itoa(uid)))
}

func (f *fixture) moderator(cid, uid int64) {
	require.NoError(f.t, f.store.AddSetMembers(f.ctx, dao.ModeratorsKey(cid), itoa(uid)))
}

func (f *fixture) legacy(pid, ts int64, blob string) {
	f.t.Helper()
	require.NoError(f.t, f.store.AddTimeOrdered(f.ctx, dao.LegacyKey(pid), ts, blob))
}

// standard post 42 by uid 1 in topic 7 / category 3
func (f *fixture) basicPost(content string) {
	f.user(1, "author")
	f.user(2, "viewer")
	f.user(9, "admin")
	f.admin(9)
	f.topic(7, 3, "title")
	f.post(postSeed{pid: 42, uid: 1, tid: 7, content: content, timestamp: 10})
}

func (f *fixture) history(pid, viewer int64) []*dto.RevisionDTO {
	f.t.Helper()
	list, err := f.svc.GetHistory(f.ctx, pid, viewer)
	require.NoError(f.t, err)
	require.NotEmpty(f.t, list)
	require.Equal(f.t, "current", list[0].Mode)
	return list
}

// stamps lists entry timestamps after the current entry, with mode prefix
func stamps(list []*dto.RevisionDTO) []string {
	var out []string
	for _, d := range list[1:] {
		out = append(out, d.Mode+":"+itoa(*d.Timestamp))
	}
	return out
}
