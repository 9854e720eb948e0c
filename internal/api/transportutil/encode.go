package transportutil

import (
	"encoding/json"
	"net/http"

	"github.com/instarepo/instarepo-api/pkg/api/returntypes"
)

func SendJSON(w http.ResponseWriter, obj interface{}) error {
	w.Header().Add("Content-Type", "application/json; charset=UTF-8")
	return json.NewEncoder(w).Encode(obj)
}

func EncodeError(w http.ResponseWriter, err error) {
	te := MakeError(err)

	w.Header().Add("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(te.HTTPCode)

	resp := returntypes.Error{
		Error: te.Message,
	}

	_ = json.NewEncoder(w).Encode(resp)
}
