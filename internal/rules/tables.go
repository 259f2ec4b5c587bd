// File path: internal/rules/tables.go

// Package rules carries the static decision tables: segment keyword
// classification, per-segment regulatory product mandates, segment-priority
// categories, and the canned recommendation sets served by the rules tier of
// the decision router. Tables ship with compiled-in defaults and can be
// overridden from a YAML file.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CannedRecommendation is a pre-built rules-tier suggestion for a segment.
type CannedRecommendation struct {
	Product   string `yaml:"product" json:"product"`
	Tier      string `yaml:"tier" json:"tier"`
	Reasoning string `yaml:"reasoning" json:"reasoning"`
}

// Tables bundles every static rule table.
type Tables struct {
	// SegmentKeywords maps a lowercase substring to the segment it implies.
	SegmentKeywords map[string]string `yaml:"segment_keywords"`
	// Regulatory maps a segment to the products mandated for it.
	Regulatory map[string][]string `yaml:"regulatory"`
	// PriorityCategories maps a segment to the catalog categories it is
	// expected to cover.
	PriorityCategories map[string][]string `yaml:"priority_categories"`
	// Canned maps a segment to the rules-tier recommendation set.
	Canned map[string][]CannedRecommendation `yaml:"canned"`
	// DefaultSegment is used when no keyword matches.
	DefaultSegment string `yaml:"default_segment"`
}

// Defaults returns the compiled-in rule tables.
func Defaults() *Tables {
	return &Tables{
		DefaultSegment: "general",
		SegmentKeywords: map[string]string{
			"pay":       "payments",
			"wallet":    "payments",
			"remit":     "payments",
			"lend":      "lending",
			"loan":      "lending",
			"credit":    "lending",
			"finance":   "lending",
			"capital":   "lending",
			"bank":      "banking",
			"neo":       "banking",
			"insur":     "insurance",
			"assur":     "insurance",
			"shop":      "ecommerce",
			"cart":      "ecommerce",
			"market":    "ecommerce",
			"commerce":  "ecommerce",
			"retail":    "ecommerce",
			"game":      "gaming",
			"gaming":    "gaming",
			"fantasy":   "gaming",
			"invest":    "wealth",
			"wealth":    "wealth",
			"trade":     "wealth",
			"broker":    "wealth",
			"logistics": "logistics",
			"delivery":  "logistics",
			"transport": "logistics",
		},
		Regulatory: map[string][]string{
			"payments":  {"KYC Verification", "AML Screening"},
			"lending":   {"KYC Verification", "Credit Bureau Check", "Bank Statement Analysis"},
			"banking":   {"KYC Verification", "AML Screening", "PEP Screening"},
			"insurance": {"KYC Verification"},
			"gaming":    {"KYC Verification", "Age Verification"},
			"wealth":    {"KYC Verification", "AML Screening"},
		},
		PriorityCategories: map[string][]string{
			"payments":  {"identity", "risk", "payouts"},
			"lending":   {"identity", "credit", "collections"},
			"banking":   {"identity", "risk", "accounts"},
			"insurance": {"identity", "claims"},
			"ecommerce": {"identity", "payments", "logistics"},
			"gaming":    {"identity", "payouts"},
			"wealth":    {"identity", "risk", "accounts"},
			"logistics": {"identity", "payments"},
			"general":   {"identity"},
		},
		Canned: map[string][]CannedRecommendation{
			"payments": {
				{Product: "KYC Verification", Tier: "must-have", Reasoning: "Payment processors must verify counterparties before settlement."},
				{Product: "AML Screening", Tier: "must-have", Reasoning: "Transaction monitoring is mandated for money movement."},
				{Product: "Fraud Detection", Tier: "high-value", Reasoning: "Fraud loss scales with payment volume."},
			},
			"lending": {
				{Product: "Credit Bureau Check", Tier: "must-have", Reasoning: "Underwriting requires a bureau pull."},
				{Product: "Bank Statement Analysis", Tier: "high-value", Reasoning: "Cash-flow underwriting improves approval quality."},
				{Product: "eMandate Setup", Tier: "high-value", Reasoning: "Recurring collections reduce repayment friction."},
			},
			"banking": {
				{Product: "KYC Verification", Tier: "must-have", Reasoning: "Account opening requires identity verification."},
				{Product: "PEP Screening", Tier: "must-have", Reasoning: "Politically exposed person checks are mandated for deposit accounts."},
			},
			"ecommerce": {
				{Product: "Payment Gateway", Tier: "high-value", Reasoning: "Checkout conversion depends on a reliable gateway."},
				{Product: "Address Verification", Tier: "nice-to-have", Reasoning: "Reduces failed deliveries and returns."},
			},
			"gaming": {
				{Product: "Age Verification", Tier: "must-have", Reasoning: "Real-money gaming requires age gating."},
				{Product: "Instant Payouts", Tier: "high-value", Reasoning: "Winnings disbursement speed drives retention."},
			},
			"general": {
				{Product: "KYC Verification", Tier: "high-value", Reasoning: "Identity verification is the most common entry product."},
			},
		},
	}
}

// Load reads rule tables from a YAML file, overlaying the defaults. Sections
// absent from the file keep their compiled-in values.
func Load(path string) (*Tables, error) {
	tables := Defaults()
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return tables, nil
	}
	data, err := os.ReadFile(filepath.Clean(trimmed))
	if err != nil {
		return nil, fmt.Errorf("read rule tables: %w", err)
	}
	var loaded Tables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse rule tables: %w", err)
	}
	if len(loaded.SegmentKeywords) > 0 {
		tables.SegmentKeywords = loaded.SegmentKeywords
	}
	if len(loaded.Regulatory) > 0 {
		tables.Regulatory = loaded.Regulatory
	}
	if len(loaded.PriorityCategories) > 0 {
		tables.PriorityCategories = loaded.PriorityCategories
	}
	if len(loaded.Canned) > 0 {
		tables.Canned = loaded.Canned
	}
	if strings.TrimSpace(loaded.DefaultSegment) != "" {
		tables.DefaultSegment = strings.TrimSpace(loaded.DefaultSegment)
	}
	return tables, nil
}

// RegulatoryFor returns the mandated products for a segment.
func (t *Tables) RegulatoryFor(segment string) []string {
	if t == nil {
		return nil
	}
	return t.Regulatory[strings.ToLower(strings.TrimSpace(segment))]
}

// CategoriesFor returns the priority categories for a segment.
func (t *Tables) CategoriesFor(segment string) []string {
	if t == nil {
		return nil
	}
	return t.PriorityCategories[strings.ToLower(strings.TrimSpace(segment))]
}

// CannedFor returns the rules-tier recommendation set for a segment, falling
// back to the default segment's set.
func (t *Tables) CannedFor(segment string) []CannedRecommendation {
	if t == nil {
		return nil
	}
	key := strings.ToLower(strings.TrimSpace(segment))
	if recs, ok := t.Canned[key]; ok {
		return recs
	}
	return t.Canned[t.DefaultSegment]
}
