package provider

import (
	"context"
)

type Provider interface {
	Name() string

	SetBaseURL(url string) error

	ListInstallations(ctx context.Context, cfg *ListInstallationsConfig) ([]Installation, error)
	ListInstallationRepos(ctx context.Context, cfg *ListInstallationReposConfig) (*RepoPage, error)
}
