package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><head><title> Example Domain </title><style>body{}</style></head>
<body><nav>menu</nav><h1>Example</h1><p>This domain is for <b>examples</b>.</p>
<script>alert(1)</script></body></html>`

func TestFetchDirectHTML(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "mcpilot-test", Timeout: time.Second})
	page, err := c.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)

	assert.Equal(t, "mcpilot-test", gotUA)
	assert.Equal(t, "Example Domain", page.Title)
	assert.Equal(t, "direct", page.Source)
	assert.Contains(t, page.Content, "This domain is for examples")
	assert.NotContains(t, page.Content, "alert")
	assert.NotContains(t, page.Content, "menu")
	assert.False(t, page.Truncated)
}

func TestFetchTruncatesByRunes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(strings.Repeat("天", 50)))
	}))
	defer srv.Close()

	c := New(Options{})
	page, err := c.Fetch(context.Background(), srv.URL, 10)
	require.NoError(t, err)
	assert.True(t, page.Truncated)
	assert.Equal(t, strings.Repeat("天", 10), page.Content)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Options{}).Fetch(context.Background(), srv.URL, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFetch)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchConnectionRefusedIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Options{Timeout: time.Second}).Fetch(context.Background(), url, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFetch)
	assert.Equal(t, apperrors.FetchConnectionRefused, apperrors.ClassifyFetchError(err))
}

func TestFetchPrefersExternalService(t *testing.T) {
	var asked string
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/functions/fetch", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		asked = body["url"]
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"content": "from service"}})
	}))
	defer svc.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dead.Close()

	c := New(Options{UseExternal: true, Services: []string{dead.URL + "/v1", svc.URL + "/v1"}})
	page, err := c.Fetch(context.Background(), "example.com", 0)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", asked)
	assert.Equal(t, "from service", page.Content)
	assert.Equal(t, svc.URL+"/v1", page.Source)
}

func TestFetchFallsBackToDirect(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {}}`))
	}))
	defer empty.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain body"))
	}))
	defer site.Close()

	c := New(Options{UseExternal: true, Services: []string{empty.URL}})
	page, err := c.Fetch(context.Background(), site.URL, 0)
	require.NoError(t, err)
	assert.Equal(t, "direct", page.Source)
	assert.Equal(t, "plain body", page.Content)
}

func TestFetchRequiresURL(t *testing.T) {
	_, err := New(Options{}).Fetch(context.Background(), "  ", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddServicePrependsOnce(t *testing.T) {
	c := New(Options{Services: []string{"http://a/v1"}})
	c.AddService("http://b/v1/")
	c.AddService("http://b/v1")

	assert.Equal(t, []string{"http://b/v1", "http://a/v1"}, c.Services())
}
