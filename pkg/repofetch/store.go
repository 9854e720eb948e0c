package repofetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/instarepo/instarepo-api/internal/shared/config"
	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

const (
	// DefaultStaleTTL is how long fetched results are considered fresh.
	DefaultStaleTTL = 5 * time.Minute
	// DefaultGCTTL is how long an unused session is kept in memory.
	DefaultGCTTL = 15 * time.Minute
)

// SessionKey builds the cache key of a fetch sequence. A change in the
// credentials flag, the installations list or the auth key produces a new
// key and therefore a fresh sequence from the initial cursor.
//
// Sessions hold results fetched with the caller's credentials, so authKey
// must identify them: callers with different tokens can see different
// repos and permissions for the same installation list and must never
// share a session. Pass a fingerprint, not raw token material.
func SessionKey(providersAreSet bool, installations []provider.Installation, authKey string) string {
	ids := make([]string, 0, len(installations))
	for _, inst := range installations {
		ids = append(ids, strconv.FormatInt(inst.ID, 10))
	}

	return fmt.Sprintf("repos/fetch?providersSet=%t&installations=%s&auth=%s&v=1",
		providersAreSet, strings.Join(ids, ","), authKey)
}

// Store keeps fetch sessions per session key. A session is reused while
// fresh (REPOS_STALE_TTL, default 5m since its last fetched page) and
// dropped when unused for longer than the GC window (REPOS_GC_TTL,
// default 15m).
type Store struct {
	cfg config.Config
	log logutil.Log

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(cfg config.Config, log logutil.Log) *Store {
	return &Store{
		cfg:      cfg,
		log:      log,
		sessions: map[string]*Session{},
	}
}

// Acquire returns the fresh session for the key or starts a new sequence.
// The passed context is used for all of the new session's fetches.
func (st *Store) Acquire(ctx context.Context, key string, build func() *Session) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s := st.sessions[key]; s != nil && st.isFresh(s) {
		return s
	}

	s := build()
	st.sessions[key] = s
	s.Start(ctx)

	return s
}

// Invalidate drops the session for the key: the next Acquire restarts
// the sequence from the initial cursor.
func (st *Store) Invalidate(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
}

func (st *Store) isFresh(s *Session) bool {
	if s.Err() != nil {
		return false
	}

	fetchedAt := s.lastFetchedAt()
	if fetchedAt.IsZero() { // nothing fetched yet, sequence still warming up
		return true
	}

	staleTTL := st.cfg.GetDuration("REPOS_STALE_TTL", DefaultStaleTTL)
	return time.Since(fetchedAt) < staleTTL
}

// RunGC evicts unused sessions until ctx is done. Run it in a goroutine.
func (st *Store) RunGC(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.gcIteration()
		}
	}
}

func (st *Store) gcIteration() {
	gcTTL := st.cfg.GetDuration("REPOS_GC_TTL", DefaultGCTTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	for key, s := range st.sessions {
		if time.Since(s.lastUsed()) > gcTTL {
			st.log.Infof("Evicting repo fetch session %s unused for >%s", key, gcTTL)
			delete(st.sessions, key)
		}
	}
}
