package implementations

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

// Check the struct is implementing the Provider interface.
var _ provider.Provider = &StableProvider{}

type StableProvider struct {
	underlying   provider.Provider
	totalTimeout time.Duration
	maxRetries   int
}

func NewStableProvider(underlying provider.Provider, totalTimeout time.Duration, maxRetries int) *StableProvider {
	return &StableProvider{
		underlying:   underlying,
		totalTimeout: totalTimeout,
		maxRetries:   maxRetries,
	}
}

func (p StableProvider) Name() string {
	return p.underlying.Name()
}

func (p StableProvider) SetBaseURL(s string) error {
	return p.underlying.SetBaseURL(s)
}

func (p StableProvider) retry(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = p.totalTimeout

	bmr := backoff.WithMaxRetries(b, uint64(p.maxRetries))
	wrapped := func() error {
		err := f()
		if err != nil && provider.IsPermanentError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(wrapped, bmr); err != nil {
		if perr, ok := err.(*backoff.PermanentError); ok {
			return perr.Err
		}
		return err
	}

	return nil
}

func (p StableProvider) ListInstallations(ctx context.Context, cfg *provider.ListInstallationsConfig) (ret []provider.Installation, err error) {
	err = p.retry(func() error {
		var ferr error
		ret, ferr = p.underlying.ListInstallations(ctx, cfg)
		return ferr
	})
	return
}

func (p StableProvider) ListInstallationRepos(ctx context.Context, cfg *provider.ListInstallationReposConfig) (ret *provider.RepoPage, err error) {
	err = p.retry(func() error {
		var ferr error
		ret, ferr = p.underlying.ListInstallationRepos(ctx, cfg)
		return ferr
	})
	return
}
