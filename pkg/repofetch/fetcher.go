package repofetch

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

// AppModeSaaS is the only deployment mode in which repo fetching runs.
const AppModeSaaS = "saas"

// RepoLister returns one page of an installation's repositories.
// It owns forward progress across installations: see provider.RepoPage.
type RepoLister interface {
	ListInstallationRepos(ctx context.Context, cfg *provider.ListInstallationReposConfig) (*provider.RepoPage, error)
}

// Gate is the precondition set that must hold before any fetch is issued:
// provider credentials configured, a non-empty installations list and the
// saas deployment mode. All inputs are re-evaluated on every check so that
// e.g. revoking credentials stops further fetches.
type Gate struct {
	ProvidersAreSet func() bool
	Installations   func() []provider.Installation
	AppMode         func() string
}

func (g Gate) Active() bool {
	if g.ProvidersAreSet == nil || !g.ProvidersAreSet() {
		return false
	}

	if g.Installations == nil || len(g.Installations()) == 0 {
		return false
	}

	return g.AppMode != nil && g.AppMode() == AppModeSaaS
}

// Session is one auto-paginating fetch sequence over the two-level
// (installation, repo page) space. Pages are fetched strictly one at a
// time; after every fetched page the session decides the next cursor and,
// while one exists, re-triggers fetching without any external trigger.
//
// Session state is ephemeral: a session is never restarted, a stale or
// invalidated one is replaced by a new session (see Store).
type Session struct {
	lister   RepoLister
	gate     Gate
	log      logutil.Log
	pageSize int

	ctx  context.Context
	done chan struct{}

	mu            sync.Mutex
	installations []provider.Installation
	pages         []provider.RepoPage
	cursor        *Cursor
	fetching      bool
	finished      bool
	err           error
	fetchedAt     time.Time
	lastUsedAt    time.Time
	observers     []func()
}

func NewSession(lister RepoLister, gate Gate, log logutil.Log) *Session {
	s := &Session{
		lister:   lister,
		gate:     gate,
		log:      log,
		pageSize: DefaultPageSize,
		done:     make(chan struct{}),

		installations: gate.Installations(),
		lastUsedAt:    time.Now(),
	}

	cur := InitialCursor()
	s.cursor = &cur

	// Auto-continuation is an observer of fetch completions like any
	// other subscriber, not a loop around the lister.
	s.observers = append(s.observers, s.autoContinue)

	return s
}

// OnChange registers an observer called after every fetch completion.
// Register observers before Start.
func (s *Session) OnChange(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, f)
}

// Start begins the fetch sequence. It is a no-op when the gate is
// inactive, a fetch is already in flight or the sequence has ended.
// The context must outlive the session: continuation fetches run on it
// long after the triggering caller is gone.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		s.ctx = ctx
	}
	s.startFetchLocked()
}

func (s *Session) startFetchLocked() {
	if s.fetching || s.finished || s.err != nil {
		return
	}

	if !s.gate.Active() {
		return
	}

	s.fetching = true
	cur := *s.cursor
	go s.fetch(cur)
}

func (s *Session) fetch(cur Cursor) {
	page, err := s.FetchPage(s.ctx, cur)

	s.mu.Lock()
	s.fetching = false
	s.fetchedAt = time.Now()

	if err != nil {
		s.err = err
		close(s.done)
		s.mu.Unlock()

		s.log.Warnf("Repo fetch sequence failed: %s", err)
		s.notifyObservers()
		return
	}

	s.pages = append(s.pages, *page)
	s.cursor = NextCursor(page)
	if s.cursor == nil {
		s.finished = true
		close(s.done)
	}
	s.mu.Unlock()

	s.notifyObservers()
}

// FetchPage fetches one page of repositories at the given cursor. Calling
// it without an installations list is a broken contract and fails with
// provider.ErrNoInstallations.
func (s *Session) FetchPage(ctx context.Context, cur Cursor) (*provider.RepoPage, error) {
	s.mu.Lock()
	installations := s.installations
	s.mu.Unlock()

	if installations == nil {
		return nil, provider.ErrNoInstallations
	}

	page, err := s.lister.ListInstallationRepos(ctx, &provider.ListInstallationReposConfig{
		InstallationIndex: cur.Index(),
		Installations:     installations,
		Page:              cur.Page(),
		PerPage:           s.pageSize,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch repo page %d of installation %d",
			cur.Page(), cur.Index())
	}

	return page, nil
}

func (s *Session) notifyObservers() {
	s.mu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o()
	}
}

func (s *Session) autoContinue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startFetchLocked()
}

// Wait blocks until the sequence drains, fails, or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Repos returns the flattened repository list across all fetched pages,
// in fetch order.
func (s *Session) Repos() []provider.Repo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()

	var ret []provider.Repo
	for _, p := range s.pages {
		ret = append(ret, p.Repos...)
	}
	return ret
}

// Pages returns a copy of the accumulated page results in fetch order.
func (s *Session) Pages() []provider.RepoPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()

	ret := make([]provider.RepoPage, len(s.pages))
	copy(ret, s.pages)
	return ret
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *Session) lastFetchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}
