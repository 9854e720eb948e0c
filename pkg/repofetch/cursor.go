package repofetch

import (
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

// DefaultPageSize is the fixed repo page size requested from the provider.
const DefaultPageSize = 30

// Cursor identifies which installation and which page of that installation's
// repositories to fetch next. A nil InstallationIndex means there are no
// further installations to fetch from.
type Cursor struct {
	InstallationIndex *int
	RepoPage          *int
}

// InitialCursor is the fixed starting point of every fetch sequence:
// first installation, first repo page.
func InitialCursor() Cursor {
	return Cursor{
		InstallationIndex: intPtr(0),
		RepoPage:          intPtr(1),
	}
}

// Index returns the cursor's installation index, defaulting to 0 when unset.
func (c Cursor) Index() int {
	if c.InstallationIndex == nil {
		return 0
	}
	return *c.InstallationIndex
}

// Page returns the cursor's repo page, defaulting to 1 when unset.
func (c Cursor) Page() int {
	if c.RepoPage == nil {
		return 1
	}
	return *c.RepoPage
}

// NextCursor decides where to move after the given page: the next repo page
// of the same installation while pages remain, page 1 of the installation
// index the page reports once the current installation is drained, and nil
// when the page reports no installation to move to.
//
// The installation index is taken from the page as-is and never advanced
// here: forward progress across installations is the repo lister's contract
// (see provider.RepoPage.InstallationIndex).
func NextCursor(lastPage *provider.RepoPage) *Cursor {
	if lastPage.NextPage != nil {
		return &Cursor{
			InstallationIndex: lastPage.InstallationIndex,
			RepoPage:          lastPage.NextPage,
		}
	}

	if lastPage.InstallationIndex != nil {
		return &Cursor{
			InstallationIndex: lastPage.InstallationIndex,
			RepoPage:          intPtr(1),
		}
	}

	return nil
}

func intPtr(v int) *int {
	return &v
}
