package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/highlight"
	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/rank"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

// maxQueryLen bounds the query length the server accepts, in bytes.
const maxQueryLen = 256

// Server handles msgpack IPC for typeahead suggestions.
type Server struct {
	searcher suggest.ISearcher
	logger   *log.Logger

	mu  sync.Mutex
	enc *msgpack.Encoder

	inputMu sync.Mutex
	inputID string

	requests int
	started  time.Time
}

// NewServer creates a server around searcher and takes over its listener.
func NewServer(searcher suggest.ISearcher) *Server {
	s := &Server{
		searcher: searcher,
		logger:   logger.New("ipc"),
	}
	searcher.SetListener(s.push)
	return s
}

// Start serves stdin/stdout until stdin closes.
func (s *Server) Start() error {
	return s.Serve(context.Background(), bufio.NewReader(os.Stdin), os.Stdout)
}

// Serve decodes requests from r and writes responses to w until r is exhausted
// or ctx is done. Pushed input results may still be written to w afterwards.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.logger.Debug("Starting Server.")
	s.mu.Lock()
	s.enc = msgpack.NewEncoder(w)
	s.started = time.Now()
	s.mu.Unlock()

	// Signal that the server is ready
	s.send(StatusResponse{Status: "ready"})

	dec := msgpack.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var raw msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			return err
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.logger.Debugf("Unmarshaling request: %v", err)
			s.sendError("", "invalid request", 400)
			continue
		}
		s.requests++
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	switch req.Action {
	case "", ActionSearch:
		s.handleSearch(ctx, req)
	case ActionInput:
		s.handleInput(req)
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case ActionStats:
		stats := s.searcher.Stats()
		stats["requests"] = s.requests
		stats["uptimeSeconds"] = int(time.Since(s.started).Seconds())
		s.send(StatusResponse{ID: req.ID, Status: "ok", Stats: stats})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleSearch(ctx context.Context, req Request) {
	if len(req.Query) > maxQueryLen {
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d bytes", maxQueryLen), 400)
		return
	}

	start := time.Now()
	res, ok := s.searcher.Search(ctx, req.Query)
	if !ok {
		s.send(SearchResponse{ID: req.ID, Query: req.Query, Suggestions: []Suggestion{}, Stale: true})
		return
	}
	resp := buildResponse(req.ID, res, req.Limit)
	resp.TimeTaken = time.Since(start).Microseconds()
	s.send(resp)
}

func (s *Server) handleInput(req Request) {
	if len(req.Query) > maxQueryLen {
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d bytes", maxQueryLen), 400)
		return
	}
	s.inputMu.Lock()
	s.inputID = req.ID
	s.inputMu.Unlock()
	s.searcher.Submit(req.Query)
}

// push writes results of debounced input. It runs under the searcher's lock.
func (s *Server) push(res suggest.Result) {
	s.inputMu.Lock()
	id := s.inputID
	s.inputMu.Unlock()
	s.send(buildResponse(id, res, 0))
}

func buildResponse(id string, res suggest.Result, limit int) SearchResponse {
	items := res.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	suggestions := make([]Suggestion, len(items))
	for i, it := range items {
		suggestions[i] = toSuggestion(it, res.Query)
	}
	return SearchResponse{
		ID:          id,
		Query:       res.Query,
		Suggestions: suggestions,
		Count:       len(suggestions),
		Provisional: res.Provisional,
	}
}

func toSuggestion(it rank.Scored, query string) Suggestion {
	sg := Suggestion{
		Kind:   string(it.Candidate.Kind()),
		Key:    it.Candidate.Key(),
		Label:  it.Candidate.Label(),
		Marked: highlight.Highlight(it.Candidate.Label(), query),
		Score:  it.Score,
	}
	switch c := it.Candidate.(type) {
	case model.Post:
		sg.Detail = c.AuthorName
		sg.Image = c.ImageURL
	case model.Author:
		sg.Detail = c.Bio
		sg.Image = c.ImageURL
	}
	return sg
}

// send encodes response to the client; writes are serialized.
func (s *Server) send(response any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return
	}
	if err := s.enc.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
