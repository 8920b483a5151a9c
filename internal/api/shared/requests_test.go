package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "ok"}`))
		var p payload
		require.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "ok", p.Name)
	})

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "ok"}`+"\n  "))
		var p payload
		assert.NoError(t, DecodeJSON(req, &p))
	})

	t.Run("trailing garbage rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "ok"} extra`))
		var p payload
		assert.Error(t, DecodeJSON(req, &p))
	})

	t.Run("second JSON document rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "ok"}{"name": "two"}`))
		var p payload
		assert.Error(t, DecodeJSON(req, &p))
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var p payload
		assert.Error(t, DecodeJSON(req, &p))
	})
}
