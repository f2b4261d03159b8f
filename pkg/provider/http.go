// Package provider implements the content and author sources the suggest
// coordinator fans out to: the social API over HTTP and an in-memory index
// used for fixtures and offline runs.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

// Social API defaults.
const (
	DefaultBaseURL      = "https://v2.api.noroff.dev"
	DefaultPostsPath    = "/social/posts"
	DefaultProfilesPath = "/social/profiles"
	DefaultTimeout      = 10 * time.Second

	HeaderAPIKey = "X-Noroff-API-Key"

	// maxErrorBody caps how much of a failed response ends up in the error.
	maxErrorBody = 512
)

var (
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("unexpected status")
	// ErrEnvelope is returned when a response body is not a JSON object.
	ErrEnvelope = errors.New("malformed response envelope")
	// ErrBaseURL is returned for an unusable base URL.
	ErrBaseURL = errors.New("invalid base url")
)

// HTTPOptions configures an HTTP provider. Zero values fall back to the defaults.
type HTTPOptions struct {
	BaseURL      string
	PostsPath    string
	ProfilesPath string
	APIKey       string
	Token        string
	Timeout      time.Duration
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// HTTP searches posts and profiles through the social API.
type HTTP struct {
	base         *url.URL
	postsPath    string
	profilesPath string
	apiKey       string
	token        string
	client       *http.Client
	logger       *log.Logger
}

// NewHTTP creates an HTTP provider.
func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q needs an http or https scheme", ErrBaseURL, opts.BaseURL)
	}
	if opts.PostsPath == "" {
		opts.PostsPath = DefaultPostsPath
	}
	if opts.ProfilesPath == "" {
		opts.ProfilesPath = DefaultProfilesPath
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTP{
		base:         base,
		postsPath:    opts.PostsPath,
		profilesPath: opts.ProfilesPath,
		apiKey:       opts.APIKey,
		token:        opts.Token,
		client:       client,
		logger:       logger.New("http"),
	}, nil
}

// SearchPosts implements suggest.ContentProvider.
func (h *HTTP) SearchPosts(ctx context.Context, q suggest.PostQuery) ([]model.PostRecord, error) {
	params := url.Values{}
	params.Set("q", queryParam(q.Text))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		params.Set("sort", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", q.SortOrder)
	}
	if q.IncludeAuthor {
		params.Set("_author", "true")
	}
	if q.IncludeReactions {
		params.Set("_reactions", "true")
		params.Set("_count", "true")
	}

	raw, err := h.get(ctx, h.postsPath, params)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	records, skipped := model.DecodePostRecords(raw)
	if skipped > 0 {
		h.logger.Debugf("Skipped %d undecodable post records", skipped)
	}
	return records, nil
}

// SearchAuthors implements suggest.AuthorProvider.
func (h *HTTP) SearchAuthors(ctx context.Context, q suggest.AuthorQuery) ([]model.AuthorRecord, error) {
	params := url.Values{}
	params.Set("q", queryParam(q.Text))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	raw, err := h.get(ctx, h.profilesPath, params)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	records, skipped := model.DecodeAuthorRecords(raw)
	if skipped > 0 {
		h.logger.Debugf("Skipped %d undecodable profile records", skipped)
	}
	return records, nil
}

// get fetches path and returns the elements of the envelope's data array.
// A data member that is missing or not an array yields no elements.
func (h *HTTP) get(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	u := h.base.JoinPath(path)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	if h.apiKey != "" {
		req.Header.Set(HeaderAPIKey, h.apiKey)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	h.logger.Debugf("GET %s took [ %v ]", path, time.Since(start))

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	return items, nil
}

// queryParam collapses whitespace the way the API expects search terms.
func queryParam(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
