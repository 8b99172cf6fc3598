package std

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequest_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "items": [1, 2]}`))
	}))
	defer srv.Close()

	tool, err := NewHTTPRequest(srv.Client())
	require.NoError(t, err)

	res := invoke(t, tool, map[string]any{
		"url":     srv.URL,
		"headers": map[string]any{"X-Test": "yes"},
	})
	require.True(t, res.OK(), "%v", res.Err)

	out := res.Value.(map[string]any)
	assert.Equal(t, http.StatusOK, out["status_code"])
	assert.Equal(t, map[string]any{"ok": true, "items": []any{float64(1), float64(2)}}, out["data"])
	assert.Equal(t, "application/json", out["headers"].(map[string]string)["Content-Type"])
}

func TestHTTPRequest_PostData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "miniagent", body["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "created")
	}))
	defer srv.Close()

	tool, err := NewHTTPRequest(srv.Client())
	require.NoError(t, err)

	res := invoke(t, tool, map[string]any{
		"url":    srv.URL,
		"method": "POST",
		"data":   map[string]any{"name": "miniagent"},
	})
	require.True(t, res.OK(), "%v", res.Err)

	out := res.Value.(map[string]any)
	assert.Equal(t, http.StatusCreated, out["status_code"])
	assert.Equal(t, "created", out["data"])
}

func TestHTTPRequest_Rejects(t *testing.T) {
	tool, err := NewHTTPRequest(nil)
	require.NoError(t, err)

	res := invoke(t, tool, map[string]any{"url": "file:///etc/passwd"})
	require.False(t, res.OK())
	assert.Contains(t, res.Text(), "only http and https")

	res = invoke(t, tool, map[string]any{"url": "http://example.com", "method": "TRACE"})
	assert.False(t, res.OK())
}

func TestWebSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "duckduckgo", q.Get("engine"))
		assert.Equal(t, "golang", q.Get("q"))
		assert.Equal(t, "secret", q.Get("api_key"))

		_, _ = io.WriteString(w, `{
			"organic_results": [
				{"title": "Go", "link": "https://go.dev", "snippet": "The Go language"},
				{"title": "Tour", "link": "https://go.dev/tour", "snippet": "A tour of Go"}
			],
			"knowledge_graph": {"title": "Go (language)", "website": "https://go.dev", "description": "Programming language"},
			"related_searches": [
				{"query": "golang tutorial", "link": "https://example.com/1"},
				{"query": "golang generics", "link": "https://example.com/2"}
			]
		}`)
	}))
	defer srv.Close()

	tool, err := NewWebSearch(srv.Client(), srv.URL, "secret")
	require.NoError(t, err)

	res := invoke(t, tool, map[string]any{"query": "golang", "num_results": 4})
	require.True(t, res.OK(), "%v", res.Err)

	results := res.Value.([]SearchResult)
	require.Len(t, results, 4)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "Go (language)", results[2].Title)
	assert.Equal(t, "Related: golang tutorial", results[3].Title)

	res = invoke(t, tool, map[string]any{"query": "golang"})
	require.True(t, res.OK())
	assert.Len(t, res.Value.([]SearchResult), 5)
}

func TestWebSearch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error": "Invalid API key"}`)
	}))
	defer srv.Close()

	tool, err := NewWebSearch(srv.Client(), srv.URL, "bad")
	require.NoError(t, err)
	res := invoke(t, tool, map[string]any{"query": "x"})
	require.False(t, res.OK())
	assert.Contains(t, res.Text(), "status 401")

	noKey, err := NewWebSearch(srv.Client(), srv.URL, "")
	require.NoError(t, err)
	res = invoke(t, noKey, map[string]any{"query": "x"})
	require.False(t, res.OK())
	assert.Contains(t, res.Text(), "SERPAPI_KEY")
}
