package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Scoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/scoreboard", r.URL.Path)
		assert.Equal(t, "20260115", r.URL.Query().Get("dates"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events": [{"id": "1"}, {"id": "2"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	sb, err := client.Scoreboard(context.Background(), "basketball/nba", "20260115")
	require.NoError(t, err)

	assert.Equal(t, "20260115", sb.Date)
	require.Len(t, sb.Events, 2)
	assert.Equal(t, "1", sb.Events[0].String("id"))
}

func TestClient_ScoreboardWithoutEventsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"leagues": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	sb, err := client.Scoreboard(context.Background(), "basketball/nba", "20260115")
	require.NoError(t, err)
	assert.Empty(t, sb.Events)
}

func TestClient_ScoreboardErrorCarriesDateAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Scoreboard(context.Background(), "basketball/nba", "20260115")
	require.Error(t, err)

	fe, ok := err.(*FetchError)
	require.True(t, ok)
	assert.Equal(t, "20260115", fe.Date)
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestClient_ScoreboardMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events": `))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Scoreboard(context.Background(), "basketball/nba", "20260115")
	require.Error(t, err)

	fe, ok := err.(*FetchError)
	require.True(t, ok)
	assert.Equal(t, "20260115", fe.Date)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"events": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Scoreboard(context.Background(), "basketball/nba", "20260115")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}
