// File path: internal/recommend/recommend.go

// Package recommend composes ranked, explainable product recommendations for
// an existing client or a prospect profile. Four tiers feed the list in fixed
// precedence: regulatory mandates, similar-client signals, industry-standard
// adoption, and category gaps. Duplicates keep the first occurrence in tier
// order.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clearline/clientiq/internal/adoption"
	"github.com/clearline/clientiq/internal/feed"
	"github.com/clearline/clientiq/internal/reconcile"
	"github.com/clearline/clientiq/internal/rules"
	"github.com/clearline/clientiq/internal/similarity"
)

// Priority tiers, strongest first.
const (
	TierMustHave   = "must-have"
	TierHighValue  = "high-value"
	TierNiceToHave = "nice-to-have"
)

// Source kinds identifying which tier produced a recommendation.
const (
	SourceRegulatory       = "regulatory"
	SourceSimilarClients   = "similar-clients"
	SourceIndustryStandard = "industry-standard"
	SourceCategoryGap      = "category-gap"
)

const (
	regulatoryConfidence = 95
	industryConfidence   = 80
	categoryGapConf      = 70
	similarBase          = 50
	similarPerNeighbor   = 10
	similarCap           = 90
	highValueNeighbors   = 3

	defaultLimit            = 10
	defaultNeighbors        = 5
	defaultUpsellTopN       = 5
	fallbackMonthlyEstimate = 500.0
	categoryGapMaxPicks     = 2
)

// Recommendation is one scored product suggestion.
type Recommendation struct {
	TargetName              string  `json:"target_name"`
	ProductName             string  `json:"product_name"`
	PriorityTier            string  `json:"priority_tier"`
	Confidence              int     `json:"confidence"`
	Reasoning               string  `json:"reasoning"`
	SourceKind              string  `json:"source_kind"`
	EstimatedMonthlyRevenue float64 `json:"estimated_monthly_revenue"`
	EstimatedAnnualRevenue  float64 `json:"estimated_annual_revenue"`
}

// Profile describes a prospect that is not yet a client.
type Profile struct {
	Name      string `json:"name"`
	Segment   string `json:"segment"`
	Size      string `json:"size,omitempty"`
	Geography string `json:"geography,omitempty"`
}

// Options tune list size and neighbor fan-out.
type Options struct {
	// Limit truncates the final list. The list is never padded to reach it.
	Limit int
	// Neighbors is the k used for the similar-client tier.
	Neighbors int
	// UpsellTopN bounds the upsell-value sum.
	UpsellTopN int
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Neighbors <= 0 {
		o.Neighbors = defaultNeighbors
	}
	if o.UpsellTopN <= 0 {
		o.UpsellTopN = defaultUpsellTopN
	}
	return o
}

// Result bundles the ranked list with the aggregate upsell estimate.
type Result struct {
	Target                 string           `json:"target"`
	Recommendations        []Recommendation `json:"recommendations"`
	PotentialUpsellMonthly float64          `json:"potential_upsell_monthly"`
}

// Composer combines adoption statistics, similarity output, and the static
// rule tables into recommendation lists.
type Composer struct {
	tables          *rules.Tables
	byCategory      map[string][]string
	productCategory map[string]string
}

// New builds a composer over the product catalog and rule tables.
func New(catalog []feed.Product, tables *rules.Tables) *Composer {
	c := &Composer{
		tables:          tables,
		byCategory:      make(map[string][]string),
		productCategory: make(map[string]string),
	}
	for _, product := range catalog {
		category := strings.ToLower(strings.TrimSpace(product.Category))
		if category == "" {
			continue
		}
		c.byCategory[category] = append(c.byCategory[category], product.Name)
		c.productCategory[product.Name] = category
	}
	for category := range c.byCategory {
		sort.Strings(c.byCategory[category])
	}
	return c
}

// ForClient composes recommendations for an existing client using its
// reconciled record, the segment adoption profiles, and its nearest
// neighbors from the similarity engine.
func (c *Composer) ForClient(rec reconcile.ClientRecord, profiles map[string]adoption.SegmentAdoption, engine *similarity.Engine, opts Options) Result {
	opts = opts.withDefaults()
	owned := ownedSet(rec)
	var neighbors []similarity.Edge
	if engine != nil {
		neighbors = engine.FindSimilar(rec.CanonicalName, opts.Neighbors)
	}
	recs := c.compose(rec.CanonicalName, rec.Segment, owned, neighbors, profiles, true)
	return c.finish(rec.CanonicalName, recs, opts)
}

// ForProfile composes recommendations for a prospect. The prospect owns no
// products; its segment peers stand in for similar clients, and the
// category-gap tier does not apply.
func (c *Composer) ForProfile(profile Profile, records []reconcile.ClientRecord, profiles map[string]adoption.SegmentAdoption, opts Options) Result {
	opts = opts.withDefaults()
	neighbors := segmentPeers(profile, records, opts.Neighbors)
	recs := c.compose(profile.Name, profile.Segment, map[string]bool{}, neighbors, profiles, false)
	return c.finish(profile.Name, recs, opts)
}

func (c *Composer) compose(target, segment string, owned map[string]bool, neighbors []similarity.Edge, profiles map[string]adoption.SegmentAdoption, existing bool) []Recommendation {
	seen := make(map[string]bool)
	var recs []Recommendation
	add := func(r Recommendation) {
		if r.ProductName == "" || seen[r.ProductName] || owned[r.ProductName] {
			return
		}
		seen[r.ProductName] = true
		r.TargetName = target
		r.EstimatedMonthlyRevenue = c.estimateMonthly(r.ProductName, segment, profiles)
		r.EstimatedAnnualRevenue = r.EstimatedMonthlyRevenue * 12
		recs = append(recs, r)
	}

	for _, product := range c.tables.RegulatoryFor(segment) {
		add(Recommendation{
			ProductName:  product,
			PriorityTier: TierMustHave,
			Confidence:   regulatoryConfidence,
			Reasoning:    fmt.Sprintf("Mandatory for the %s segment and not yet adopted.", segment),
			SourceKind:   SourceRegulatory,
		})
	}

	for _, candidate := range neighborCandidates(neighbors, owned) {
		tier := TierNiceToHave
		if candidate.count >= highValueNeighbors {
			tier = TierHighValue
		}
		confidence := similarBase + similarPerNeighbor*candidate.count
		if confidence > similarCap {
			confidence = similarCap
		}
		add(Recommendation{
			ProductName:  candidate.product,
			PriorityTier: tier,
			Confidence:   confidence,
			Reasoning:    fmt.Sprintf("Used by %d of your most similar clients.", candidate.count),
			SourceKind:   SourceSimilarClients,
		})
	}

	if profile, ok := profiles[segment]; ok {
		for _, product := range profile.ProductsByImportance(adoption.ImportanceCommon) {
			add(Recommendation{
				ProductName:  product,
				PriorityTier: TierHighValue,
				Confidence:   industryConfidence,
				Reasoning:    fmt.Sprintf("Standard in the %s segment (%.0f%% adoption).", segment, profile.PerProduct[product].AdoptionRate*100),
				SourceKind:   SourceIndustryStandard,
			})
		}
	}

	if existing {
		for _, category := range c.tables.CategoriesFor(segment) {
			if c.ownsCategory(owned, category) {
				continue
			}
			picks := 0
			for _, product := range c.byCategory[category] {
				if picks >= categoryGapMaxPicks {
					break
				}
				if seen[product] || owned[product] {
					continue
				}
				add(Recommendation{
					ProductName:  product,
					PriorityTier: TierNiceToHave,
					Confidence:   categoryGapConf,
					Reasoning:    fmt.Sprintf("No coverage in the %s category yet.", category),
					SourceKind:   SourceCategoryGap,
				})
				picks++
			}
		}
	}
	return recs
}

func (c *Composer) finish(target string, recs []Recommendation, opts Options) Result {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := tierRank(recs[i].PriorityTier), tierRank(recs[j].PriorityTier)
		if ri != rj {
			return ri < rj
		}
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].ProductName < recs[j].ProductName
	})
	if len(recs) > opts.Limit {
		recs = recs[:opts.Limit]
	}
	upsell := 0.0
	for i, rec := range recs {
		if i >= opts.UpsellTopN {
			break
		}
		upsell += rec.EstimatedMonthlyRevenue
	}
	return Result{Target: target, Recommendations: recs, PotentialUpsellMonthly: upsell}
}

func (c *Composer) ownsCategory(owned map[string]bool, category string) bool {
	for product := range owned {
		if c.productCategory[product] == category {
			return true
		}
	}
	return false
}

// estimateMonthly derives a revenue estimate from the segment's average
// revenue per adopter, falling back to the cross-segment average and then a
// fixed floor.
func (c *Composer) estimateMonthly(product, segment string, profiles map[string]adoption.SegmentAdoption) float64 {
	if profile, ok := profiles[segment]; ok {
		if stats, ok := profile.PerProduct[product]; ok && stats.AvgRevenuePerUser > 0 {
			return stats.AvgRevenuePerUser
		}
	}
	var total float64
	var count int
	for _, profile := range profiles {
		if stats, ok := profile.PerProduct[product]; ok && stats.AvgRevenuePerUser > 0 {
			total += stats.AvgRevenuePerUser
			count++
		}
	}
	if count > 0 {
		return total / float64(count)
	}
	return fallbackMonthlyEstimate
}

func tierRank(tier string) int {
	switch tier {
	case TierMustHave:
		return 0
	case TierHighValue:
		return 1
	default:
		return 2
	}
}

func ownedSet(rec reconcile.ClientRecord) map[string]bool {
	owned := make(map[string]bool, len(rec.Products))
	for product := range rec.Products {
		owned[product] = true
	}
	return owned
}

type neighborCandidate struct {
	product string
	count   int
}

// neighborCandidates ranks products used by the neighbor set but not by the
// target, by how many neighbors use each.
func neighborCandidates(neighbors []similarity.Edge, owned map[string]bool) []neighborCandidate {
	counts := make(map[string]int)
	for _, edge := range neighbors {
		for _, product := range edge.UniqueToB {
			if owned[product] {
				continue
			}
			counts[product]++
		}
	}
	candidates := make([]neighborCandidate, 0, len(counts))
	for product, count := range counts {
		candidates = append(candidates, neighborCandidate{product: product, count: count})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].product < candidates[j].product
	})
	return candidates
}

// segmentPeers treats the highest-revenue clients of the prospect's segment
// as stand-in neighbors, each contributing its full product set.
func segmentPeers(profile Profile, records []reconcile.ClientRecord, k int) []similarity.Edge {
	var peers []reconcile.ClientRecord
	for _, rec := range records {
		if rec.Segment == profile.Segment && len(rec.Products) > 0 {
			peers = append(peers, rec)
		}
	}
	sort.Slice(peers, func(i, j int) bool {
		if peers[i].TotalRevenue != peers[j].TotalRevenue {
			return peers[i].TotalRevenue > peers[j].TotalRevenue
		}
		return peers[i].CanonicalName < peers[j].CanonicalName
	})
	if len(peers) > k {
		peers = peers[:k]
	}
	edges := make([]similarity.Edge, 0, len(peers))
	for _, peer := range peers {
		products := peer.ProductNames()
		sort.Strings(products)
		edges = append(edges, similarity.Edge{
			ClientA:   profile.Name,
			ClientB:   peer.CanonicalName,
			UniqueToB: products,
		})
	}
	return edges
}
