// File path: internal/identity/identity_test.go
package identity

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "acmepay", "acmepay"},
		{"uppercase folded", "ACME-PAY", "acmepay"},
		{"punctuation stripped", "Acme Pay Pvt. Ltd.", "acmepaypvtltd"},
		{"digits kept", "Shop 24x7", "shop24x7"},
		{"unicode stripped", "Çafé Pay", "afpay"},
		{"empty", "", ""},
		{"only punctuation", "  --  ", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("%s: Normalize(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestNormalizeJoinsCaseAndPunctuationVariants(t *testing.T) {
	if Normalize("Acme Pay") != Normalize("ACME-PAY") {
		t.Fatalf("case and punctuation variants should share a key")
	}
}

// Legal-suffix variants spell the suffix differently, so they stay distinct
// keys on purpose.
func TestNormalizeKeepsLegalSuffixVariantsApart(t *testing.T) {
	a := Normalize("Acme Pvt Ltd")
	b := Normalize("Acme Private Limited")
	if a == b {
		t.Fatalf("expected distinct keys, both normalized to %q", a)
	}
}
