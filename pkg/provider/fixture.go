package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/pkg/model"
)

// Fixture is the on-disk shape of an offline data set.
type Fixture struct {
	Posts    []json.RawMessage `json:"posts"`
	Profiles []json.RawMessage `json:"profiles"`
}

// LoadFixture reads a JSON fixture file into a new Memory provider.
func LoadFixture(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	m, err := ReadFixture(f)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return m, nil
}

// ReadFixture decodes a fixture from r. Records that fail to decode are
// skipped individually.
func ReadFixture(r io.Reader) (*Memory, error) {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}

	posts, skippedPosts := model.DecodePostRecords(fx.Posts)
	authors, skippedAuthors := model.DecodeAuthorRecords(fx.Profiles)
	if skippedPosts+skippedAuthors > 0 {
		log.Warnf("Skipped %d posts and %d profiles that could not be decoded", skippedPosts, skippedAuthors)
	}

	m := NewMemory()
	addedPosts := m.AddPosts(posts...)
	addedAuthors := m.AddAuthors(authors...)
	log.Debugf("Loaded fixture with %d posts and %d profiles", addedPosts, addedAuthors)
	return m, nil
}
