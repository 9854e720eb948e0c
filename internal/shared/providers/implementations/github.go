package implementations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-github/v50/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

// Check the struct is implementing the Provider interface.
var _ provider.Provider = &Github{}

const GithubProviderName = "github.com"

type Github struct {
	auth    *provider.Auth
	baseURL *url.URL
	log     logutil.Log
}

func NewGithub(auth *provider.Auth, log logutil.Log) *Github {
	return &Github{
		auth: auth,
		log:  log,
	}
}

func (p Github) Name() string {
	return GithubProviderName
}

func (p *Github) SetBaseURL(s string) error {
	baseURL, err := url.Parse(s)
	if err != nil {
		return errors.Wrap(err, "failed to parse url")
	}

	p.baseURL = baseURL
	return nil
}

func (p Github) client(ctx context.Context) *github.Client {
	at := p.auth.AccessToken
	if p.auth.PrivateAccessToken != "" {
		at = p.auth.PrivateAccessToken
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			AccessToken: at,
		},
	)
	tc := oauth2.NewClient(ctx, ts)
	c := github.NewClient(tc)
	if p.baseURL != nil {
		c.BaseURL = p.baseURL
	}

	return c
}

func (p Github) unwrapError(err error) error {
	if er, ok := err.(*github.ErrorResponse); ok {
		if er.Response.StatusCode == http.StatusNotFound {
			return provider.ErrNotFound
		}
		if er.Response.StatusCode == http.StatusUnauthorized {
			return provider.ErrUnauthorized
		}
	}

	return err
}

func parseGithubInstallation(i *github.Installation) *provider.Installation {
	return &provider.Installation{
		ID:           i.GetID(),
		AccountLogin: i.GetAccount().GetLogin(),
	}
}

func parseGithubRepository(r *github.Repository) *provider.Repo {
	return &provider.Repo{
		ID:              r.GetID(),
		FullName:        r.GetFullName(),
		IsAdmin:         r.GetPermissions()["admin"],
		IsPrivate:       r.GetPrivate(),
		DefaultBranch:   r.GetDefaultBranch(),
		StargazersCount: r.GetStargazersCount(),
		Language:        r.GetLanguage(),
	}
}

func (p Github) ListInstallations(ctx context.Context, cfg *provider.ListInstallationsConfig) ([]provider.Installation, error) {
	opts := github.ListOptions{
		PerPage: 100, // 100 is a max allowed value
	}

	var ret []provider.Installation
	for {
		pageInstallations, resp, err := p.client(ctx).Apps.ListUserInstallations(ctx, &opts)
		if err != nil {
			return nil, p.unwrapError(err)
		}

		for _, i := range pageInstallations {
			ret = append(ret, *parseGithubInstallation(i))
		}

		if resp.NextPage == 0 { // it's the last page
			break
		}

		if opts.Page == cfg.MaxPages {
			p.log.Warnf("Limited installations list to %d entries (%d pages)", len(ret), cfg.MaxPages)
			break
		}

		opts.Page = resp.NextPage
	}

	return ret, nil
}

func (p Github) ListInstallationRepos(ctx context.Context, cfg *provider.ListInstallationReposConfig) (*provider.RepoPage, error) {
	if cfg.Installations == nil {
		return nil, provider.ErrNoInstallations
	}
	if cfg.InstallationIndex < 0 || cfg.InstallationIndex >= len(cfg.Installations) {
		return nil, fmt.Errorf("installation index %d is out of range, have %d installations",
			cfg.InstallationIndex, len(cfg.Installations))
	}

	installation := cfg.Installations[cfg.InstallationIndex]
	opts := github.ListOptions{
		Page:    cfg.Page,
		PerPage: cfg.PerPage,
	}

	listRet, resp, err := p.client(ctx).Apps.ListUserRepos(ctx, installation.ID, &opts)
	if err != nil {
		return nil, p.unwrapError(err)
	}

	page := &provider.RepoPage{}
	for _, r := range listRet.Repositories {
		page.Repos = append(page.Repos, *parseGithubRepository(r))
	}

	if resp.NextPage != 0 {
		page.NextPage = intPtr(resp.NextPage)
		page.InstallationIndex = intPtr(cfg.InstallationIndex)
		return page, nil
	}

	// The installation is drained: report the next installation index so
	// callers walking the cursor space can move forward, nil when it was
	// the last one.
	if next := cfg.InstallationIndex + 1; next < len(cfg.Installations) {
		page.InstallationIndex = intPtr(next)
	}

	return page, nil
}

func intPtr(v int) *int {
	return &v
}
