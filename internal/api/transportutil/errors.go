package transportutil

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

type Error struct {
	HTTPCode int
	Message  string
}

func (e Error) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(e.Message)), nil
}

func (e Error) Error() string {
	return e.Message
}

func makeError(code int, e error) *Error {
	return &Error{
		HTTPCode: code,
		Message:  e.Error(),
	}
}

func MakeError(e error) *Error {
	srcErr := errors.Cause(e)
	switch srcErr {
	case provider.ErrNotFound:
		return makeError(http.StatusNotFound, e)
	case provider.ErrUnauthorized:
		return makeError(http.StatusUnauthorized, e)
	case provider.ErrNoInstallations:
		return makeError(http.StatusBadRequest, e)
	}

	return makeError(http.StatusInternalServerError, errors.New("internal error"))
}
