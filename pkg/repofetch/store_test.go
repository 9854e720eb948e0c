package repofetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

type staticConfig struct {
	strings   map[string]string
	durations map[string]time.Duration
}

func (c staticConfig) GetString(key string) string {
	return c.strings[key]
}

func (c staticConfig) GetDuration(key string, def time.Duration) time.Duration {
	if d, ok := c.durations[key]; ok {
		return d
	}
	return def
}

func (c staticConfig) GetInt(key string, def int) int {
	return def
}

func (c staticConfig) GetBool(key string, def bool) bool {
	return def
}

func terminalLister() *fakeLister {
	return &fakeLister{
		script: []scriptedPage{
			{page: &provider.RepoPage{
				Repos:             makeRepos(3, "orgA"),
				NextPage:          nil,
				InstallationIndex: nil,
			}},
		},
	}
}

func buildTestSession(builds *int) func() *Session {
	return func() *Session {
		*builds++
		return NewSession(terminalLister(), activeGate(testInstallations()), logutil.NewStderrLog("test"))
	}
}

func TestSessionKey(t *testing.T) {
	installations := []provider.Installation{{ID: 1}, {ID: 2}}

	key := SessionKey(true, installations, "a1b2")
	assert.Equal(t, "repos/fetch?providersSet=true&installations=1,2&auth=a1b2&v=1", key)

	assert.NotEqual(t, key, SessionKey(false, installations, "a1b2"))
	assert.NotEqual(t, key, SessionKey(true, installations[:1], "a1b2"))

	// same installations under different credentials never share a key
	assert.NotEqual(t, key, SessionKey(true, installations, "c3d4"))
}

func TestStoreReusesFreshSession(t *testing.T) {
	st := NewStore(staticConfig{}, logutil.NewStderrLog("test"))

	builds := 0
	build := buildTestSession(&builds)

	s1 := st.Acquire(context.Background(), "k", build)
	require.NoError(t, s1.Wait(waitCtx(t)))

	s2 := st.Acquire(context.Background(), "k", build)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, builds)
}

func TestStoreRestartsStaleSession(t *testing.T) {
	cfg := staticConfig{durations: map[string]time.Duration{
		"REPOS_STALE_TTL": time.Nanosecond,
	}}
	st := NewStore(cfg, logutil.NewStderrLog("test"))

	builds := 0
	build := buildTestSession(&builds)

	s1 := st.Acquire(context.Background(), "k", build)
	require.NoError(t, s1.Wait(waitCtx(t)))
	time.Sleep(time.Millisecond)

	s2 := st.Acquire(context.Background(), "k", build)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, builds)
}

func TestStoreRestartsFailedSession(t *testing.T) {
	st := NewStore(staticConfig{}, logutil.NewStderrLog("test"))

	builds := 0
	failing := func() *Session {
		builds++
		lister := &fakeLister{
			script: []scriptedPage{
				{err: assert.AnError},
			},
		}
		return NewSession(lister, activeGate(testInstallations()), logutil.NewStderrLog("test"))
	}

	s1 := st.Acquire(context.Background(), "k", failing)
	require.Error(t, s1.Wait(waitCtx(t)))

	s2 := st.Acquire(context.Background(), "k", failing)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, builds)
}

func TestStoreInvalidate(t *testing.T) {
	st := NewStore(staticConfig{}, logutil.NewStderrLog("test"))

	builds := 0
	build := buildTestSession(&builds)

	s1 := st.Acquire(context.Background(), "k", build)
	st.Invalidate("k")

	s2 := st.Acquire(context.Background(), "k", build)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, builds)
}

func TestStoreGCEvictsUnusedSessions(t *testing.T) {
	cfg := staticConfig{durations: map[string]time.Duration{
		"REPOS_GC_TTL": 10 * time.Millisecond,
	}}
	st := NewStore(cfg, logutil.NewStderrLog("test"))

	builds := 0
	build := buildTestSession(&builds)

	s1 := st.Acquire(context.Background(), "k", build)
	require.NoError(t, s1.Wait(waitCtx(t)))

	time.Sleep(20 * time.Millisecond)
	st.gcIteration()

	s2 := st.Acquire(context.Background(), "k", build)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, builds)
}
