package returntypes

type Error struct {
	Error string `json:"error,omitempty"`
}

type RepoInfo struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Organization    string `json:"organization,omitempty"`
	IsAdmin         bool   `json:"isAdmin"`
	IsPrivate       bool   `json:"isPrivate,omitempty"`
	DefaultBranch   string `json:"defaultBranch,omitempty"`
	Language        string `json:"language,omitempty"`
	StargazersCount int    `json:"stargazersCount,omitempty"`
}

type RepoListResponse struct {
	Repos []RepoInfo `json:"repos"`

	// FetchingEnabled is false when the activation gate doesn't hold:
	// no credentials, no installations or a non-saas deployment mode.
	FetchingEnabled bool `json:"fetchingEnabled"`
}

type InstallationInfo struct {
	ID           int64  `json:"id"`
	AccountLogin string `json:"accountLogin"`
}

type InstallationListResponse struct {
	Installations []InstallationInfo `json:"installations"`
}
