/*
Package server implements msgpack IPC for typeahead suggestions.

The server reads a stream of msgpack requests from stdin and writes msgpack
responses to stdout. Every request carries an ID that is echoed back.

# IPC

A search runs the query right away and answers with ranked suggestions:

	{"id": "req_001", "q": "anna"}
	{"id": "req_001", "q": "anna", "s": [{"k": "author", "id": "anna", "l": "anna", "m": "<mark>anna</mark>", "s": 108}], "c": 1, "t": 812}

Keystroke input is debounced. Only the latest query is answered, possibly twice:
first with a provisional cached result and then with the fresh one. Pushed
responses carry the ID of the most recent input request:

	{"id": "in_007", "a": "input", "q": "ann"}

Health and stats requests report the server state:

	{"id": "h1", "a": "health"}
	{"id": "s1", "a": "stats"}

Failures are reported with an error message and an HTTP-like code:

	{"id": "req_002", "e": "unknown action: nope", "c": 400}

Suggestion markup in "m" is HTML-escaped with every query token wrapped in
<mark> tags, so clients can render it without further escaping.
*/
package server

// Request actions.
const (
	ActionSearch = "search"
	ActionInput  = "input"
	ActionHealth = "health"
	ActionStats  = "stats"
)

// Request is a single client message. An empty action means search.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"a,omitempty"`
	Query  string `msgpack:"q"`
	// Limit caps the suggestions of this response below the configured maximum.
	Limit int `msgpack:"l,omitempty"`
}

// Suggestion is one ranked candidate.
type Suggestion struct {
	Kind   string  `msgpack:"k"`
	Key    string  `msgpack:"id"`
	Label  string  `msgpack:"l"`
	Marked string  `msgpack:"m"`
	Detail string  `msgpack:"d,omitempty"`
	Image  string  `msgpack:"img,omitempty"`
	Score  float64 `msgpack:"s"`
}

// SearchResponse answers search and input requests.
type SearchResponse struct {
	ID          string       `msgpack:"id"`
	Query       string       `msgpack:"q"`
	Suggestions []Suggestion `msgpack:"s"`
	Count       int          `msgpack:"c"`
	Provisional bool         `msgpack:"p,omitempty"`
	// Stale marks a search superseded by newer input; it has no suggestions.
	Stale bool `msgpack:"x,omitempty"`
	// TimeTaken is in microseconds.
	TimeTaken int64 `msgpack:"t"`
}

// StatusResponse answers health and stats requests.
type StatusResponse struct {
	ID     string         `msgpack:"id"`
	Status string         `msgpack:"status"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
