package matcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesForItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/match", r.URL.Path)

		var req map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(12), req["item_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[{"item_id":7,"score":0.93},{"item_id":3,"score":0.41}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	matches, err := c.MatchesForItem(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(7), matches[0].ItemID)
	assert.InDelta(t, 0.93, matches[0].Score, 1e-9)
}

func TestMatchesForItem_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.MatchesForItem(context.Background(), 1)
	assert.ErrorContains(t, err, "status 500")
}

func TestMatchesForItem_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.MatchesForItem(context.Background(), 1)
	assert.Error(t, err)
}
