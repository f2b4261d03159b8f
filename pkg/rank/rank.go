/*
Package rank scores typeahead candidates and orders them.

A score blends per-field match tiers with popularity and recency signals:

	author: tier(name) + 0.4*tier(bio) + 8 if the name starts with the query
	post:   tier(title) + 0.7*tier(author) + popularity(0..12) + recency(0..10)

Candidates whose total is zero never reach the caller.
*/
package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/match"
	"github.com/bastiangx/typeahead/pkg/model"
)

// Field weights and bonus bounds.
const (
	authorNameWeight  = 1.0
	authorBioWeight   = 0.4
	handlePrefixBonus = 8.0

	postTitleWeight  = 1.0
	postAuthorWeight = 0.7

	popularityScale = 6.0
	popularityMax   = 12.0
	recencyMax      = 10.0
)

// Scored pairs a candidate with its score for one query.
type Scored struct {
	Candidate model.Candidate
	Score     float64
}

// Scorer computes relevance scores. The zero value is not usable; use NewScorer.
type Scorer struct {
	now func() time.Time
}

// NewScorer returns a scorer using now for recency; nil means time.Now.
func NewScorer(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// Score returns the relevance of c for query, always >= 0.
func (s *Scorer) Score(query string, c model.Candidate) float64 {
	return s.score(utils.Normalize(query), c, s.now())
}

func (s *Scorer) score(q string, c model.Candidate, now time.Time) float64 {
	if q == "" {
		return 0
	}
	switch v := c.(type) {
	case model.Author:
		name := utils.Normalize(v.Name)
		total := float64(match.TierNormalized(q, name))*authorNameWeight +
			float64(match.TierNormalized(q, utils.Normalize(v.Bio)))*authorBioWeight
		if strings.HasPrefix(name, q) {
			total += handlePrefixBonus
		}
		return total
	case model.Post:
		total := float64(match.TierNormalized(q, utils.Normalize(v.Title)))*postTitleWeight +
			float64(match.TierNormalized(q, utils.Normalize(v.AuthorName)))*postAuthorWeight
		total += Popularity(v.Popularity)
		if !v.CreatedAt.IsZero() {
			total += Recency(now.Sub(v.CreatedAt))
		}
		return total
	}
	return 0
}

// Popularity maps a reaction total onto 0..12 on a log scale.
func Popularity(reactions int) float64 {
	if reactions < 0 {
		reactions = 0
	}
	return clamp(math.Log10(float64(reactions)+1)*popularityScale, 0, popularityMax)
}

// Recency maps a post age onto 10 (brand new) down to 0.
func Recency(age time.Duration) float64 {
	days := age.Hours() / 24
	if days < 0 {
		days = 0
	}
	return clamp(recencyMax-math.Log2(days+1), 0, recencyMax)
}

// Rank scores candidates, drops those scoring zero, sorts the rest by score
// descending and keeps at most limit. Ties keep input order.
// A non-positive limit keeps everything.
func (s *Scorer) Rank(query string, candidates []model.Candidate, limit int) []Scored {
	q := utils.Normalize(query)
	now := s.now()

	ranked := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if score := s.score(q, c, now); score > 0 {
			ranked = append(ranked, Scored{Candidate: c, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
