package provider

import "strings"

// Auth is the material needed to build an authorized provider client.
type Auth struct {
	Provider string

	AccessToken        string
	PrivateAccessToken string
}

// Installation represents one app installation accessible to the user.
type Installation struct {
	ID           int64
	AccountLogin string
}

// Repo represents provider repository.
// On any incompatible change don't forget to bump cache version in fetchRepoListCached
type Repo struct {
	ID            int64
	FullName      string
	IsAdmin       bool
	IsPrivate     bool
	DefaultBranch string

	StargazersCount int
	Language        string
}

func (r Repo) Name() string {
	return strings.Split(r.FullName, "/")[1]
}

func (r Repo) Owner() string {
	return strings.Split(r.FullName, "/")[0]
}

// RepoPage is one page of an installation's repositories.
type RepoPage struct {
	Repos []Repo

	// NextPage is the next repo page within the same installation,
	// nil when the installation's repositories are exhausted.
	NextPage *int

	// InstallationIndex is the index the page belongs to while NextPage
	// is set. Once an installation is exhausted it carries the index of
	// the next installation to fetch, or nil when there is none: the
	// cursor layer never advances the index itself and relies on this
	// field for forward progress.
	InstallationIndex *int
}

type ListInstallationsConfig struct {
	MaxPages int
}

type ListInstallationReposConfig struct {
	// InstallationIndex is a 0-based index into Installations.
	InstallationIndex int
	Installations     []Installation

	// Page is 1-based.
	Page    int
	PerPage int
}
