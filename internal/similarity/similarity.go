// File path: internal/similarity/similarity.go

// Package similarity ranks clients by overlap of their product-usage sets.
// The base measure is Jaccard similarity over product names; pairs in the
// same segment get a fixed 1.3x boost clamped to 1.0. Because segment
// equality is symmetric, the boosted score is equal in both directions; the
// relation still reads as directed in output tables because each edge lists
// the products unique to its B side.
package similarity

import (
	"sort"

	"github.com/clearline/clientiq/internal/identity"
	"github.com/clearline/clientiq/internal/reconcile"
)

const segmentBoost = 1.3

// Edge is one scored client pair. Directed: UniqueToB lists products B uses
// that A does not, which is what the recommendation composer consumes.
type Edge struct {
	ClientA        string   `json:"client_a"`
	ClientB        string   `json:"client_b"`
	Score          float64  `json:"score"`
	SharedProducts []string `json:"shared_products"`
	UniqueToB      []string `json:"unique_to_b"`
}

type entry struct {
	name     string
	segment  string
	products map[string]struct{}
}

// Engine precomputes product sets for the current record snapshot. It is
// immutable after construction; a reconciliation rebuild constructs a new
// engine.
type Engine struct {
	entries []entry
	index   map[string]int
}

// New builds an engine over the reconciled records. Records without products
// still participate (they simply never share an edge).
func New(records []reconcile.ClientRecord) *Engine {
	eng := &Engine{index: make(map[string]int, len(records))}
	for _, rec := range records {
		set := make(map[string]struct{}, len(rec.Products))
		for product := range rec.Products {
			set[product] = struct{}{}
		}
		key := identity.Normalize(rec.CanonicalName)
		if _, exists := eng.index[key]; exists {
			continue
		}
		eng.index[key] = len(eng.entries)
		eng.entries = append(eng.entries, entry{name: rec.CanonicalName, segment: rec.Segment, products: set})
	}
	return eng
}

// Similarity returns the raw Jaccard similarity between two clients' product
// sets, without segment boosting. Unknown names score zero.
func (e *Engine) Similarity(a, b string) float64 {
	ea, oka := e.lookup(a)
	eb, okb := e.lookup(b)
	if !oka || !okb {
		return 0
	}
	shared, union := overlap(ea.products, eb.products)
	if union == 0 {
		return 0
	}
	return float64(len(shared)) / float64(union)
}

// BoostedSimilarity applies the same-segment boost on top of the raw Jaccard
// score, clamped to 1.0. The boost depends only on segment equality, so the
// result is identical in both directions.
func (e *Engine) BoostedSimilarity(a, b string) float64 {
	ea, oka := e.lookup(a)
	eb, okb := e.lookup(b)
	if !oka || !okb {
		return 0
	}
	return boosted(ea, eb)
}

// FindSimilar returns the top-k neighbors of the target by boosted score,
// excluding the target itself. Zero-similarity pairs are excluded entirely.
// Ties break by shared-product count descending, then name ascending.
func (e *Engine) FindSimilar(target string, k int) []Edge {
	ea, ok := e.lookup(target)
	if !ok || k <= 0 {
		return nil
	}
	var edges []Edge
	for i := range e.entries {
		eb := e.entries[i]
		if eb.name == ea.name {
			continue
		}
		score := boosted(ea, eb)
		if score <= 0 {
			continue
		}
		shared, _ := overlap(ea.products, eb.products)
		edges = append(edges, Edge{
			ClientA:        ea.name,
			ClientB:        eb.name,
			Score:          score,
			SharedProducts: shared,
			UniqueToB:      difference(eb.products, ea.products),
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Score != edges[j].Score {
			return edges[i].Score > edges[j].Score
		}
		if len(edges[i].SharedProducts) != len(edges[j].SharedProducts) {
			return len(edges[i].SharedProducts) > len(edges[j].SharedProducts)
		}
		return edges[i].ClientB < edges[j].ClientB
	})
	if len(edges) > k {
		edges = edges[:k]
	}
	return edges
}

func (e *Engine) lookup(name string) (entry, bool) {
	idx, ok := e.index[identity.Normalize(name)]
	if !ok {
		return entry{}, false
	}
	return e.entries[idx], true
}

func boosted(a, b entry) float64 {
	shared, union := overlap(a.products, b.products)
	if union == 0 || len(shared) == 0 {
		return 0
	}
	score := float64(len(shared)) / float64(union)
	if a.segment != "" && a.segment == b.segment {
		score *= segmentBoost
		if score > 1 {
			score = 1
		}
	}
	return score
}

func overlap(a, b map[string]struct{}) (shared []string, union int) {
	union = len(b)
	for product := range a {
		if _, ok := b[product]; ok {
			shared = append(shared, product)
		} else {
			union++
		}
	}
	sort.Strings(shared)
	return shared, union
}

func difference(a, b map[string]struct{}) []string {
	var out []string
	for product := range a {
		if _, ok := b[product]; !ok {
			out = append(out, product)
		}
	}
	sort.Strings(out)
	return out
}
