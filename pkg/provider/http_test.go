package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

func newTestHTTP(t *testing.T, handler http.HandlerFunc, opts HTTPOptions) *HTTP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	h, err := NewHTTP(opts)
	require.NoError(t, err)
	return h
}

func TestHTTPSearchPosts(t *testing.T) {
	h := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultPostsPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "anna k", q.Get("q"))
		assert.Equal(t, "12", q.Get("limit"))
		assert.Equal(t, "created", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("sortOrder"))
		assert.Equal(t, "true", q.Get("_author"))
		assert.Equal(t, "true", q.Get("_reactions"))
		assert.Equal(t, "true", q.Get("_count"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get(HeaderAPIKey))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"title":"anna","author":{"name":"anna"},"reactions":[{"symbol":"x","count":3}]},
			{"id":"2","reactions":"broken"}
		],"meta":{}}`))
	}, HTTPOptions{APIKey: "key", Token: "tok"})

	records, err := h.SearchPosts(context.Background(), suggest.PostQuery{
		Text:             "  anna   k ",
		Limit:            12,
		SortBy:           suggest.SortByCreated,
		SortOrder:        suggest.SortDescending,
		IncludeAuthor:    true,
		IncludeReactions: true,
	})
	require.NoError(t, err)
	require.Len(t, records, 1, "undecodable record is skipped")
	assert.Equal(t, model.FlexString("1"), records[0].ID)

	post, err := model.NewPost(records[0])
	require.NoError(t, err)
	assert.Equal(t, 3, post.Popularity)
}

func TestHTTPSearchAuthors(t *testing.T) {
	h := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultProfilesPath, r.URL.Path)
		assert.Equal(t, "ann", r.URL.Query().Get("q"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get(HeaderAPIKey))
		_, _ = w.Write([]byte(`{"data":[{"name":"anna","bio":null},{"name":"annabelle","avatar":{"url":"a.png"}}]}`))
	}, HTTPOptions{})

	records, err := h.SearchAuthors(context.Background(), suggest.AuthorQuery{Text: "ann", Limit: 12})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "annabelle", records[1].Name)
	assert.Equal(t, "a.png", records[1].Avatar.URL)
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"errors":[]}`, ErrStatus},
		{"unauthorized", http.StatusUnauthorized, `nope`, ErrStatus},
		{"not json", http.StatusOK, `<html>`, ErrEnvelope},
		{"top-level array", http.StatusOK, `[1,2]`, ErrEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, HTTPOptions{})

			_, err := h.SearchAuthors(context.Background(), suggest.AuthorQuery{Text: "a"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPNonArrayDataIsEmpty(t *testing.T) {
	for _, body := range []string{`{"data":{}}`, `{"data":null}`, `{}`} {
		h := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}, HTTPOptions{})

		records, err := h.SearchPosts(context.Background(), suggest.PostQuery{Text: "a"})
		require.NoError(t, err, body)
		assert.Empty(t, records, body)
	}
}

func TestHTTPHonorsContext(t *testing.T) {
	h := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, HTTPOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.SearchPosts(ctx, suggest.PostQuery{Text: "a"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPRejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTP(HTTPOptions{BaseURL: "ftp://example.com"})
	assert.ErrorIs(t, err, ErrBaseURL)
	_, err = NewHTTP(HTTPOptions{BaseURL: "://"})
	assert.ErrorIs(t, err, ErrBaseURL)

	h, err := NewHTTP(HTTPOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, h.base.String())
}

func TestHTTPDrivesCoordinator(t *testing.T) {
	h := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultProfilesPath:
			_, _ = w.Write([]byte(`{"data":[{"name":"annabelle"},{"name":"anna"}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}, HTTPOptions{})

	c, err := suggest.NewCoordinator(h, h)
	require.NoError(t, err)
	defer c.Close()

	res, ok := c.Search(context.Background(), "anna")
	require.True(t, ok)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "anna", res.Items[0].Candidate.Label())
}
