package repofetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

func TestInitialCursor(t *testing.T) {
	cur := InitialCursor()

	require.NotNil(t, cur.InstallationIndex)
	require.NotNil(t, cur.RepoPage)
	assert.Equal(t, 0, *cur.InstallationIndex)
	assert.Equal(t, 1, *cur.RepoPage)
}

func TestCursorDefaults(t *testing.T) {
	var cur Cursor
	assert.Equal(t, 0, cur.Index())
	assert.Equal(t, 1, cur.Page())

	cur = Cursor{InstallationIndex: intPtr(3), RepoPage: intPtr(7)}
	assert.Equal(t, 3, cur.Index())
	assert.Equal(t, 7, cur.Page())
}

func TestNextCursorContinuesSameInstallation(t *testing.T) {
	next := NextCursor(&provider.RepoPage{
		NextPage:          intPtr(2),
		InstallationIndex: intPtr(0),
	})

	require.NotNil(t, next)
	require.NotNil(t, next.InstallationIndex)
	require.NotNil(t, next.RepoPage)
	assert.Equal(t, 0, *next.InstallationIndex)
	assert.Equal(t, 2, *next.RepoPage)
}

func TestNextCursorResetsToPageOneOfReportedIndex(t *testing.T) {
	// The cursor layer doesn't advance the index itself: it restarts at
	// page 1 of whatever index the page reports. Forward progress is the
	// lister's job.
	next := NextCursor(&provider.RepoPage{
		NextPage:          nil,
		InstallationIndex: intPtr(0),
	})

	require.NotNil(t, next)
	require.NotNil(t, next.InstallationIndex)
	require.NotNil(t, next.RepoPage)
	assert.Equal(t, 0, *next.InstallationIndex)
	assert.Equal(t, 1, *next.RepoPage)

	next = NextCursor(&provider.RepoPage{
		NextPage:          nil,
		InstallationIndex: intPtr(1),
	})

	require.NotNil(t, next)
	assert.Equal(t, 1, *next.InstallationIndex)
	assert.Equal(t, 1, *next.RepoPage)
}

func TestNextCursorTerminatesWithoutInstallation(t *testing.T) {
	next := NextCursor(&provider.RepoPage{
		NextPage:          nil,
		InstallationIndex: nil,
	})

	assert.Nil(t, next)
}

func TestNextCursorPreservesNilIndexWhilePagesRemain(t *testing.T) {
	next := NextCursor(&provider.RepoPage{
		NextPage:          intPtr(5),
		InstallationIndex: nil,
	})

	require.NotNil(t, next)
	assert.Nil(t, next.InstallationIndex)
	assert.Equal(t, 5, *next.RepoPage)
}
