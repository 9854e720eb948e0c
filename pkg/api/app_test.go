package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"

	"github.com/instarepo/instarepo-api/internal/shared/cache"
	"github.com/instarepo/instarepo-api/internal/shared/config"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

type staticConfig struct {
	strings map[string]string
}

func (c staticConfig) GetString(key string) string { return c.strings[key] }
func (c staticConfig) GetDuration(key string, def time.Duration) time.Duration {
	return def
}
func (c staticConfig) GetInt(key string, def int) int    { return def }
func (c staticConfig) GetBool(key string, def bool) bool { return def }

var _ config.Config = staticConfig{}

type fakeProvider struct {
	installations []provider.Installation
	pages         map[string]*provider.RepoPage

	mu        sync.Mutex
	repoCalls int
}

func (p *fakeProvider) Name() string            { return "github.com" }
func (p *fakeProvider) SetBaseURL(string) error { return nil }

func (p *fakeProvider) ListInstallations(ctx context.Context,
	cfg *provider.ListInstallationsConfig) ([]provider.Installation, error) {

	return p.installations, nil
}

func (p *fakeProvider) ListInstallationRepos(ctx context.Context,
	cfg *provider.ListInstallationReposConfig) (*provider.RepoPage, error) {

	p.mu.Lock()
	p.repoCalls++
	p.mu.Unlock()

	page := p.pages[fmt.Sprintf("%d/%d", cfg.InstallationIndex, cfg.Page)]
	if page == nil {
		return nil, fmt.Errorf("unexpected repos request: installation %d, page %d",
			cfg.InstallationIndex, cfg.Page)
	}

	return page, nil
}

type fakeFactory struct {
	p provider.Provider
}

func (f fakeFactory) Build(auth *provider.Auth) (provider.Provider, error) {
	return f.p, nil
}

func newTestClient(t *testing.T) *httpexpect.Expect {
	p := &fakeProvider{
		installations: []provider.Installation{
			{ID: 100, AccountLogin: "orgA"},
		},
		pages: map[string]*provider.RepoPage{
			"0/1": {
				Repos: []provider.Repo{
					{ID: 1, FullName: "orgA/repo1", IsAdmin: true},
					{ID: 2, FullName: "orgA/repo2"},
				},
			},
		},
	}

	app := NewApp(
		SetProviderFactory(fakeFactory{p: p}),
		SetCache(cache.NewMemory()),
		SetConfig(staticConfig{strings: map[string]string{"APP_MODE": "saas"}}),
	)
	t.Cleanup(app.Shutdown)

	srv := httptest.NewServer(app.GetHTTPHandler())
	t.Cleanup(srv.Close)

	return httpexpect.New(t, srv.URL)
}

func TestAppListRepositories(t *testing.T) {
	e := newTestClient(t)

	body := e.GET("/v1/repositories").
		WithHeader("Authorization", "token valid_access_token").
		Expect().
		Status(http.StatusOK).
		JSON().Object()

	body.Value("fetchingEnabled").Boolean().True()

	repos := body.Value("repos").Array()
	repos.Length().Equal(2)

	first := repos.Element(0).Object()
	first.Value("name").String().Equal("orgA/repo1")
	first.Value("organization").String().Equal("orgA")
	first.Value("isAdmin").Boolean().True()
}

func TestAppListRepositoriesUnauthorized(t *testing.T) {
	e := newTestClient(t)

	e.GET("/v1/repositories").
		Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().
		Value("error").String().NotEmpty()
}

func TestAppListInstallations(t *testing.T) {
	e := newTestClient(t)

	installations := e.GET("/v1/installations").
		WithHeader("Authorization", "Bearer valid_access_token").
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		Value("installations").Array()

	installations.Length().Equal(1)

	first := installations.Element(0).Object()
	first.Value("id").Number().Equal(100)
	first.Value("accountLogin").String().Equal("orgA")
}

func TestAppHealth(t *testing.T) {
	e := newTestClient(t)

	e.GET("/v1/health").
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		Value("ok").Boolean().True()
}
