// File path: internal/adoption/adoption.go

// Package adoption computes per-segment product adoption statistics over the
// reconciled client record set. Profiles are recomputed eagerly whenever the
// record set is rebuilt and are read-only afterward.
package adoption

import (
	"sort"

	"github.com/clearline/clientiq/internal/reconcile"
)

// Importance buckets a product's adoption level within a segment.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceCommon   Importance = "common"
	ImportanceOptional Importance = "optional"
)

const (
	criticalThreshold = 0.5
	commonThreshold   = 0.2
)

// ProductStats aggregates one product's adoption inside a segment.
type ProductStats struct {
	AdoptingClientCount int        `json:"adopting_client_count"`
	AdoptionRate        float64    `json:"adoption_rate"`
	TotalRevenue        float64    `json:"total_revenue"`
	AvgRevenuePerUser   float64    `json:"avg_revenue_per_adopter"`
	Importance          Importance `json:"importance"`
}

// SegmentAdoption holds the adoption profile of one segment.
type SegmentAdoption struct {
	Segment      string                  `json:"segment"`
	TotalClients int                     `json:"total_clients"`
	PerProduct   map[string]ProductStats `json:"per_product"`
}

// Profile computes adoption statistics for every segment that has at least
// one client. Segments with zero clients are never emitted.
func Profile(records []reconcile.ClientRecord) map[string]SegmentAdoption {
	profiles := make(map[string]SegmentAdoption)
	for _, rec := range records {
		if rec.Segment == "" {
			continue
		}
		profile, ok := profiles[rec.Segment]
		if !ok {
			profile = SegmentAdoption{Segment: rec.Segment, PerProduct: make(map[string]ProductStats)}
		}
		profile.TotalClients++
		for product, usage := range rec.Products {
			stats := profile.PerProduct[product]
			stats.AdoptingClientCount++
			stats.TotalRevenue += usage.Revenue
			profile.PerProduct[product] = stats
		}
		profiles[rec.Segment] = profile
	}
	for segment, profile := range profiles {
		for product, stats := range profile.PerProduct {
			stats.AdoptionRate = float64(stats.AdoptingClientCount) / float64(profile.TotalClients)
			if stats.AdoptingClientCount > 0 {
				stats.AvgRevenuePerUser = stats.TotalRevenue / float64(stats.AdoptingClientCount)
			}
			stats.Importance = classify(stats.AdoptionRate)
			profile.PerProduct[product] = stats
		}
		profiles[segment] = profile
	}
	return profiles
}

func classify(rate float64) Importance {
	switch {
	case rate >= criticalThreshold:
		return ImportanceCritical
	case rate >= commonThreshold:
		return ImportanceCommon
	default:
		return ImportanceOptional
	}
}

// ProductsByImportance lists a segment's products carrying the given
// importance, sorted by adoption rate descending then name.
func (s SegmentAdoption) ProductsByImportance(level Importance) []string {
	var names []string
	for product, stats := range s.PerProduct {
		if stats.Importance == level {
			names = append(names, product)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.PerProduct[names[i]], s.PerProduct[names[j]]
		if a.AdoptionRate != b.AdoptionRate {
			return a.AdoptionRate > b.AdoptionRate
		}
		return names[i] < names[j]
	})
	return names
}
