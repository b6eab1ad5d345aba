package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/desertthunder/spear/internal/models"
)

const (
	exactTitleScore = 1.0
	maxFuzzyScore   = 0.99
	prefixScore     = 0.95
	queryWeight     = 0.9
	titleWeight     = 0.1
)

// Options configures ranking.
type Options struct {
	MinScore   float64 // candidates scoring below are dropped
	AutoAccept float64 // score a lone candidate needs to resolve without asking
	Limit      int     // maximum candidates returned, 0 for all
}

// DefaultOptions mirrors the [matching] section of the example config.
func DefaultOptions() Options {
	return Options{MinScore: 0.45, AutoAccept: 0.8, Limit: 10}
}

// Candidate is a ranked track.
type Candidate struct {
	Track *models.Track
	Score float64
}

// Matcher ranks tracks by similarity to a query.
type Matcher struct {
	opts Options
}

// New creates a Matcher.
func New(opts Options) *Matcher {
	return &Matcher{opts: opts}
}

// Options returns the options the matcher was built with.
func (m *Matcher) Options() Options {
	return m.opts
}

// Rank scores every track against query and returns those at or above MinScore, best first.
//
// Equal scores are ordered by most recently added, then by insertion sequence, then by ID.
// An empty query or corpus yields an empty, non-nil slice.
func (m *Matcher) Rank(query string, tracks []*models.Track) []Candidate {
	out := []Candidate{}
	q := newQuery(query)
	if len(q.words) == 0 {
		return out
	}

	for _, t := range tracks {
		if t == nil {
			continue
		}
		if s := q.score(t); s >= m.opts.MinScore {
			out = append(out, Candidate{Track: t, Score: s})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Track.AddedAt().Equal(b.Track.AddedAt()) {
			return a.Track.AddedAt().After(b.Track.AddedAt())
		}
		if a.Track.Sequence() != b.Track.Sequence() {
			return a.Track.Sequence() > b.Track.Sequence()
		}
		return a.Track.ID() < b.Track.ID()
	})

	if m.opts.Limit > 0 && len(out) > m.opts.Limit {
		out = out[:m.opts.Limit]
	}
	return out
}

// AutoAccepted returns the only candidate at or above AutoAccept.
// It reports false when none or several clear the threshold.
func (m *Matcher) AutoAccepted(cands []Candidate) (Candidate, bool) {
	var (
		pick  Candidate
		count int
	)
	for _, c := range cands {
		if c.Score >= m.opts.AutoAccept {
			pick = c
			count++
		}
	}
	if count != 1 {
		return Candidate{}, false
	}
	return pick, true
}

type query struct {
	normalized string
	words      []string
	pairs      []string
}

func newQuery(s string) query {
	ws := words(s)
	return query{normalized: Normalize(s), words: ws, pairs: pairs(ws)}
}

func (q query) score(t *models.Track) float64 {
	titleWords := words(t.Title())
	if len(titleWords) > 0 && Normalize(t.Title()) == q.normalized {
		return exactTitleScore
	}

	artistWords := words(t.Artist())
	tokens := make([]string, 0, 2*(len(titleWords)+len(artistWords)))
	tokens = append(tokens, titleWords...)
	tokens = append(tokens, pairs(titleWords)...)
	tokens = append(tokens, artistWords...)
	tokens = append(tokens, pairs(artistWords)...)
	if len(tokens) == 0 {
		return 0
	}

	best := make([]float64, len(q.words))
	for i, w := range q.words {
		best[i] = bestOf(w, tokens)
	}
	for i, p := range q.pairs {
		s := bestOf(p, tokens)
		best[i] = max(best[i], s)
		best[i+1] = max(best[i+1], s)
	}

	var queryCoverage float64
	for _, s := range best {
		queryCoverage += s
	}
	queryCoverage /= float64(len(best))

	var titleCoverage float64
	if len(titleWords) > 0 {
		qtokens := append(append([]string{}, q.words...), q.pairs...)
		for _, w := range titleWords {
			var b float64
			for _, qt := range qtokens {
				b = max(b, similarity(qt, w))
			}
			titleCoverage += b
		}
		titleCoverage /= float64(len(titleWords))
	}

	return min(queryWeight*queryCoverage+titleWeight*titleCoverage, maxFuzzyScore)
}

func bestOf(word string, tokens []string) float64 {
	var best float64
	for _, t := range tokens {
		if s := similarity(word, t); s > best {
			best = s
			if best == 1 {
				break
			}
		}
	}
	return best
}

// similarity is 1 for equal tokens, prefixScore when q starts target, else a normalized edit distance.
func similarity(q, target string) float64 {
	if q == target {
		return 1
	}
	ql, tl := utf8.RuneCountInString(q), utf8.RuneCountInString(target)
	if ql >= 2 && ql < tl && strings.HasPrefix(target, q) {
		return prefixScore
	}
	longest := max(ql, tl)
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(q, target)
	return max(0, 1-float64(d)/float64(longest))
}
