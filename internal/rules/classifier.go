// File path: internal/rules/classifier.go
package rules

import (
	"sort"
	"strings"
)

// Classifier assigns an industry segment to a client name. The default
// implementation matches keywords against the lowercased name; alternate
// strategies (exact taxonomy, model-based) can be swapped in without touching
// callers.
type Classifier interface {
	Segment(name string) string
}

// KeywordClassifier infers a segment by substring keyword matching. Keywords
// are checked longest-first so that more specific markers win, and the scan
// order is deterministic for equal lengths.
type KeywordClassifier struct {
	keywords       []keywordRule
	defaultSegment string
}

type keywordRule struct {
	keyword string
	segment string
}

// NewKeywordClassifier builds the default classifier from a rule table.
func NewKeywordClassifier(tables *Tables) *KeywordClassifier {
	if tables == nil {
		tables = Defaults()
	}
	rulesList := make([]keywordRule, 0, len(tables.SegmentKeywords))
	for keyword, segment := range tables.SegmentKeywords {
		trimmed := strings.ToLower(strings.TrimSpace(keyword))
		if trimmed == "" {
			continue
		}
		rulesList = append(rulesList, keywordRule{keyword: trimmed, segment: segment})
	}
	sort.Slice(rulesList, func(i, j int) bool {
		if len(rulesList[i].keyword) != len(rulesList[j].keyword) {
			return len(rulesList[i].keyword) > len(rulesList[j].keyword)
		}
		return rulesList[i].keyword < rulesList[j].keyword
	})
	return &KeywordClassifier{keywords: rulesList, defaultSegment: tables.DefaultSegment}
}

// Segment returns the segment implied by the first matching keyword, or the
// default segment when nothing matches.
func (c *KeywordClassifier) Segment(name string) string {
	lowered := strings.ToLower(name)
	for _, rule := range c.keywords {
		if strings.Contains(lowered, rule.keyword) {
			return rule.segment
		}
	}
	return c.defaultSegment
}

var _ Classifier = (*KeywordClassifier)(nil)
