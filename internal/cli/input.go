// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/pkg/suggest"
)

// Commands understood besides plain queries.
const (
	cmdStats = ":stats"
	cmdQuit  = ":q"
)

// InputHandler reads queries from stdin, one per line, and prints the ranked
// suggestions for each.
type InputHandler struct {
	searcher     suggest.ISearcher
	render       renderer
	in           io.Reader
	out          io.Writer
	requestCount int
}

// NewInputHandler creates a handler reading stdin and writing stdout.
func NewInputHandler(searcher suggest.ISearcher, showScores bool) *InputHandler {
	return &InputHandler{
		searcher: searcher,
		render:   newRenderer(showScores),
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// Start begins the interface loop.
// It stops at end of input or on the quit command.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, "typeahead CLI [BETA]")
	fmt.Fprintf(h.out, "type a query and press Enter to see suggestions (%s for stats, %s to exit):\n", cmdStats, cmdQuit)

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(h.out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case cmdQuit:
			return nil
		case cmdStats:
			h.printStats()
			continue
		}
		h.handleInput(ctx, line)
	}
}

// handleInput runs one query and prints its suggestions.
func (h *InputHandler) handleInput(ctx context.Context, query string) {
	h.requestCount++

	start := time.Now()
	res, ok := h.searcher.Search(ctx, query)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)
	if !ok {
		log.Warnf("Query '%s' was superseded", query)
		return
	}

	if len(res.Items) == 0 {
		fmt.Fprintf(h.out, "No suggestions found for '%s'\n", query)
		return
	}

	fmt.Fprintf(h.out, "Found %d suggestions for '%s':\n", len(res.Items), query)
	for i, it := range res.Items {
		fmt.Fprintln(h.out, h.render.line(i, it, query))
	}
}

func (h *InputHandler) printStats() {
	stats := h.searcher.Stats()
	stats["cliQueries"] = h.requestCount

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h.out, "%-14s %d\n", k, stats[k])
	}
}
