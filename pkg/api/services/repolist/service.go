package repolist

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/pkg/errors"

	"github.com/instarepo/instarepo-api/internal/shared/cache"
	"github.com/instarepo/instarepo-api/internal/shared/config"
	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
	"github.com/instarepo/instarepo-api/pkg/api/request"
	"github.com/instarepo/instarepo-api/pkg/api/returntypes"
	"github.com/instarepo/instarepo-api/pkg/repofetch"
)

type ListRequest struct {
	Refresh bool `request:",urlParam,optional"`
}

func (lr ListRequest) FillLogContext(lctx logutil.Context) {
	lctx["refresh"] = lr.Refresh
}

type Service interface {
	//url:/v1/repositories
	List(rc *request.AuthorizedContext, req *ListRequest) (*returntypes.RepoListResponse, error)

	//url:/v1/installations
	ListInstallations(rc *request.AuthorizedContext) (*returntypes.InstallationListResponse, error)
}

type BasicService struct {
	ProviderFactory providers.Factory
	SessionStore    *repofetch.Store
	Cache           cache.Cache
	Cfg             config.Config

	// FetchCtx is the context session fetches run on: sessions outlive
	// the requests that trigger them, so it must not be a request context.
	FetchCtx context.Context
}

func (s BasicService) fetchCtx() context.Context {
	if s.FetchCtx != nil {
		return s.FetchCtx
	}
	return context.Background()
}

func (s BasicService) List(rc *request.AuthorizedContext, req *ListRequest) (*returntypes.RepoListResponse, error) {
	p, err := s.ProviderFactory.Build(rc.Auth)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build provider")
	}

	installations, err := s.fetchInstallationsCached(rc, !req.Refresh, p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch installations")
	}

	gate := repofetch.Gate{
		ProvidersAreSet: func() bool {
			return rc.Auth != nil && (rc.Auth.AccessToken != "" || rc.Auth.PrivateAccessToken != "")
		},
		Installations: func() []provider.Installation {
			return installations
		},
		AppMode: func() string {
			return s.Cfg.GetString("APP_MODE")
		},
	}

	if !gate.Active() {
		rc.Log.Infof("Repo fetching is disabled: providers set: %t, installations: %d, app mode: %q",
			gate.ProvidersAreSet(), len(installations), s.Cfg.GetString("APP_MODE"))
		return &returntypes.RepoListResponse{Repos: []returntypes.RepoInfo{}}, nil
	}

	repos, err := s.fetchRepoListCached(rc, !req.Refresh, p, gate, installations)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch repos")
	}

	return &returntypes.RepoListResponse{
		Repos:           repos,
		FetchingEnabled: true,
	}, nil
}

func (s BasicService) fetchRepoListCached(rc *request.AuthorizedContext, useCache bool,
	p provider.Provider, gate repofetch.Gate, installations []provider.Installation) ([]returntypes.RepoInfo, error) {

	key := repofetch.SessionKey(gate.ProvidersAreSet(), installations, authFingerprint(rc.Auth))

	var repos []returntypes.RepoInfo
	if useCache {
		if err := s.Cache.Get(key, &repos); err != nil {
			rc.Log.Warnf("Can't fetch repos from cache by key %s: %s", key, err)
		} else if len(repos) != 0 {
			rc.Log.Infof("Returning %d repos from cache", len(repos))
			return repos, nil
		}
	} else {
		rc.Log.Infof("Don't lookup repos in cache, refreshing repos from provider...")
		s.SessionStore.Invalidate(key)
	}

	sess := s.SessionStore.Acquire(s.fetchCtx(), key, func() *repofetch.Session {
		return repofetch.NewSession(p, gate, rc.Log.Child("repofetch"))
	})

	if err := sess.Wait(rc.Ctx); err != nil {
		return nil, err
	}

	repos = buildResponseRepos(sess.Repos())

	cacheTTL := s.Cfg.GetDuration("REPOS_CACHE_TTL", repofetch.DefaultStaleTTL)
	if err := s.Cache.Set(key, cacheTTL, repos); err != nil {
		rc.Log.Warnf("Can't save %d repos to cache by key %s: %s", len(repos), key, err)
	}

	return repos, nil
}

func (s BasicService) ListInstallations(rc *request.AuthorizedContext) (*returntypes.InstallationListResponse, error) {
	p, err := s.ProviderFactory.Build(rc.Auth)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build provider")
	}

	installations, err := s.fetchInstallationsCached(rc, true, p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch installations")
	}

	ret := make([]returntypes.InstallationInfo, 0, len(installations))
	for _, inst := range installations {
		ret = append(ret, returntypes.InstallationInfo{
			ID:           inst.ID,
			AccountLogin: inst.AccountLogin,
		})
	}

	return &returntypes.InstallationListResponse{Installations: ret}, nil
}

func (s BasicService) fetchInstallationsCached(rc *request.AuthorizedContext, useCache bool,
	p provider.Provider) ([]provider.Installation, error) {

	const maxPages = 20
	key := fmt.Sprintf("installations/%s/fetch?auth=%s&maxPage=%d&v=1",
		p.Name(), authFingerprint(rc.Auth), maxPages)

	var installations []provider.Installation
	if useCache {
		if err := s.Cache.Get(key, &installations); err != nil {
			rc.Log.Warnf("Can't fetch installations from cache by key %s: %s", key, err)
			return s.fetchInstallationsFromProvider(rc, p, maxPages)
		}

		if len(installations) != 0 {
			rc.Log.Infof("Returning %d installations from cache", len(installations))
			return installations, nil
		}

		rc.Log.Infof("No installations in cache, fetching them from provider...")
	} else {
		rc.Log.Infof("Don't lookup installations in cache, refreshing them from provider...")
	}

	installations, err := s.fetchInstallationsFromProvider(rc, p, maxPages)
	if err != nil {
		return nil, err
	}

	cacheTTL := s.Cfg.GetDuration("INSTALLATIONS_CACHE_TTL", repofetch.DefaultStaleTTL)
	if err = s.Cache.Set(key, cacheTTL, installations); err != nil {
		rc.Log.Warnf("Can't save %d installations to cache by key %s: %s", len(installations), key, err)
	}

	return installations, nil
}

func (s BasicService) fetchInstallationsFromProvider(rc *request.AuthorizedContext,
	p provider.Provider, maxPages int) ([]provider.Installation, error) {

	installations, err := p.ListInstallations(rc.Ctx, &provider.ListInstallationsConfig{
		MaxPages: maxPages,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch installations from provider %s", p.Name())
	}

	return installations, nil
}

func buildResponseRepos(repos []provider.Repo) []returntypes.RepoInfo {
	ret := make([]returntypes.RepoInfo, 0, len(repos))
	for _, r := range repos {
		ret = append(ret, returntypes.RepoInfo{
			ID:              r.ID,
			Name:            r.FullName,
			Organization:    r.Owner(),
			IsAdmin:         r.IsAdmin,
			IsPrivate:       r.IsPrivate,
			DefaultBranch:   r.DefaultBranch,
			Language:        r.Language,
			StargazersCount: r.StargazersCount,
		})
	}
	return ret
}

// authFingerprint makes auth material usable in cache keys without
// leaking tokens into redis.
func authFingerprint(auth *provider.Auth) string {
	if auth == nil {
		return "anonymous"
	}

	h := sha256.Sum256([]byte(auth.AccessToken + "/" + auth.PrivateAccessToken))
	return fmt.Sprintf("%x", h[:8])
}
