package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/models"
)

func newTestFetcher(maxBody int64) *HTTPFetcher {
	return NewHTTPFetcher(common.FetchConfig{
		Timeout:     5 * time.Second,
		MaxBodySize: maxBody,
	}, arbor.NewLogger())
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("document bytes"))
		}))
		defer server.Close()

		body, err := newTestFetcher(1024).Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, []byte("document bytes"), body)
	})

	t.Run("non-2xx status is an input error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestFetcher(1024).Fetch(context.Background(), server.URL)

		require.Error(t, err)
		assert.True(t, models.IsInputError(err))
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(make([]byte, 2048))
		}))
		defer server.Close()

		_, err := newTestFetcher(1024).Fetch(context.Background(), server.URL)

		require.Error(t, err)
		assert.True(t, models.IsInputError(err))
		assert.Contains(t, err.Error(), "maximum size")
	})

	t.Run("unreachable host is an input error", func(t *testing.T) {
		_, err := newTestFetcher(1024).Fetch(context.Background(), "http://127.0.0.1:1/none")

		require.Error(t, err)
		assert.True(t, models.IsInputError(err))
	})
}
