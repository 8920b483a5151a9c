package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRequestBody caps JSON request bodies at 1 MiB. Catalog feeds go
// through their own handler with a larger limit.
const maxRequestBody = 1 << 20

// DecodeJSON decodes the request body into the given struct, rejecting
// oversized bodies and trailing garbage.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
