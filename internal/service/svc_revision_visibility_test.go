package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanView(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		viewer  int64
		allowed bool
	}{
		{name: "author", viewer: 1, allowed: true},
		{name: "stranger", viewer: 2, allowed: false},
		{name: "guest", viewer: 0, allowed: false},
		{name: "public", viewer: 2, allowed: true, setup: func(f *fixture) { f.visible(1, true) }},
		{name: "public guest", viewer: 0, allowed: true, setup: func(f *fixture) { f.visible(1, true) }},
		{name: "administrator", viewer: 9, allowed: true},
		{name: "moderator", viewer: 5, allowed: true, setup: func(f *fixture) { f.moderator(3, 5) }},
		{name: "moderator elsewhere", viewer: 5, allowed: false, setup: func(f *fixture) { f.moderator(4, 5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.basicPost("x")
			if tt.setup != nil {
				tt.setup(f)
			}
			ok, err := f.svc.CanView(f.ctx, 42, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestCanView_OrphanedPostIsNeverSelf(t *testing.T) {
	f := newFixture(t, nil)
	f.basicPost("x")
	f.post(postSeed{pid: 42, uid: 0, tid: 7, content: "x", timestamp: 10})

	ok, err := f.svc.CanView(f.ctx, 42, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanView_MissingPost(t *testing.T) {
	f := newFixture(t, nil)
	ok, err := f.svc.CanView(f.ctx, 404, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanView_Monotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// the answer equals the OR of the three grants, so adding one never revokes access
	properties.Property("visibility is the OR of self, public and moderator", prop.ForAll(
		func(self, public, mod bool) bool {
			f := newFixture(t, nil)
			f.basicPost("x")
			viewer := int64(2)
			if self {
				viewer = 1
			}
			f.visible(1, public)
			if mod {
				f.moderator(3, viewer)
			}
			ok, err := f.svc.CanView(f.ctx, 42, viewer)
			return err == nil && ok == (self || public || mod)
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestCanView_SettingsFailureFallsBackToOtherChecks(t *testing.T) {
	f := newFixture(t, nil)
	f.basicPost("x")
	// a wrongly typed settings key makes the settings lookup fail
	require.NoError(t, f.mr.Set("user:1:settings", "garbage"))

	ok, err := f.svc.CanView(f.ctx, 42, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanView(f.ctx, 42, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanView(f.ctx, 42, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}
