package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "test-token", "appBase123", 5*time.Second)
}

func TestTable_SelectFollowsPagination(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/appBase123/Games", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, `{League} = "NBA"`, r.URL.Query().Get("filterByFormula"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "" {
			w.Write([]byte(`{"records": [{"id": "rec1", "fields": {}}, {"id": "rec2", "fields": {}}], "offset": "page2"}`))
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"records": [{"id": "rec3", "fields": {}}]}`))
	}))
	defer srv.Close()

	recs, err := testClient(srv).Table("Games").Select(context.Background(), SelectOptions{
		FilterByFormula: Eq("League", "NBA"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, recs, 3)
	assert.Equal(t, "rec3", recs[2].ID)
}

func TestTable_SelectHonorsMaxRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("maxRecords"))
		// Store may still hand back more than asked plus an offset
		w.Write([]byte(`{"records": [{"id": "rec1"}, {"id": "rec2"}, {"id": "rec3"}], "offset": "page2"}`))
	}))
	defer srv.Close()

	recs, err := testClient(srv).Table("Games").Select(context.Background(), SelectOptions{MaxRecords: 2})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestTable_SelectEncodesSortAndFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ATS AVG", q.Get("sort[0][field]"))
		assert.Equal(t, "desc", q.Get("sort[0][direction]"))
		assert.Equal(t, []string{"Rank", "ATS AVG"}, q["fields[]"])
		w.Write([]byte(`{"records": []}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).Table("Teams").Select(context.Background(), SelectOptions{
		Fields: []string{"Rank", "ATS AVG"},
		Sort:   []SortField{{Field: "ATS AVG", Direction: "desc"}},
	})
	require.NoError(t, err)
}

func TestTable_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/appBase123/Games", r.URL.Path)

		var payload struct {
			Records []struct {
				Fields Fields `json:"fields"`
			} `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Records, 1)
		assert.Equal(t, "401585601", payload.Records[0].Fields["Event ID"])

		w.Write([]byte(`{"records": [{"id": "recNew", "fields": {"Event ID": "401585601"}}]}`))
	}))
	defer srv.Close()

	rec, err := testClient(srv).Table("Games").Create(context.Background(), Fields{"Event ID": "401585601"})
	require.NoError(t, err)
	assert.Equal(t, "recNew", rec.ID)
}

func TestTable_Update(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appBase123/Games/rec1", r.URL.Path)

		var payload struct {
			Fields Fields `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(110), payload.Fields["Team Score NBA"])

		w.Write([]byte(`{"id": "rec1", "fields": {"Team Score NBA": 110}}`))
	}))
	defer srv.Close()

	rec, err := testClient(srv).Table("Games").Update(context.Background(), "rec1", Fields{"Team Score NBA": 110})
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
}

func TestClient_RetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"records": []}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).Table("Games").Select(context.Background(), SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestClient_DoesNotRetryAuthFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv).Table("Games").Select(context.Background(), SelectOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication")
	assert.Equal(t, 1, attempts)
}
