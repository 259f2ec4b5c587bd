// File path: internal/rules/classifier_test.go
package rules

import "testing"

func TestKeywordClassifierSegments(t *testing.T) {
	classifier := NewKeywordClassifier(Defaults())
	cases := []struct {
		name    string
		segment string
	}{
		{"Acme Pay", "payments"},
		{"QuickLend Capital", "lending"},
		{"NeoBank One", "banking"},
		{"SureInsure", "insurance"},
		{"MegaMart Online", "ecommerce"},
		{"Fantasy Arena", "gaming"},
		{"WealthFront Advisors", "wealth"},
		{"Speedy Delivery Co", "logistics"},
		{"Blue Widgets", "general"},
	}
	for _, tc := range cases {
		if got := classifier.Segment(tc.name); got != tc.segment {
			t.Fatalf("Segment(%q) = %q, want %q", tc.name, got, tc.segment)
		}
	}
}

// Longer keywords must win over shorter ones embedded in the same name, and
// repeated runs must agree.
func TestKeywordClassifierLongestKeywordWinsDeterministically(t *testing.T) {
	tables := Defaults()
	tables.SegmentKeywords = map[string]string{
		"game":   "gaming",
		"gamepay": "payments",
	}
	classifier := NewKeywordClassifier(tables)
	for i := 0; i < 50; i++ {
		if got := classifier.Segment("GamePay Studios"); got != "payments" {
			t.Fatalf("run %d: expected longest keyword to win, got %q", i, got)
		}
	}
}

func TestKeywordClassifierNilTablesUsesDefaults(t *testing.T) {
	classifier := NewKeywordClassifier(nil)
	if got := classifier.Segment("Unknown Holdings"); got != "general" {
		t.Fatalf("expected default segment, got %q", got)
	}
}
