package provider

import "github.com/pkg/errors"

var (
	ErrUnauthorized = errors.New("no VCS provider authorization")
	ErrNotFound     = errors.New("not found in VCS provider")

	// ErrNoInstallations is returned when a repo page fetch is attempted
	// without an installations list. Fetching is gated on the list being
	// present, so hitting it means a broken caller, not a runtime condition.
	ErrNoInstallations = errors.New("no installations list to fetch repos for")
)

func IsPermanentError(err error) bool {
	causeErr := errors.Cause(err)
	return causeErr == ErrNotFound || causeErr == ErrUnauthorized ||
		causeErr == ErrNoInstallations
}
