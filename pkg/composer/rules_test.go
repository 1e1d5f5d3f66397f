package composer

import "testing"

func TestRules_CanFollow(t *testing.T) {
	rules := DefaultRules()

	cases := []struct {
		name     string
		kind     string
		previous string
		want     bool
	}{
		{name: "no entry follows anything", kind: KindHero, previous: KindCTA, want: true},
		{name: "unknown kind follows anything", kind: "TestimonialSection", previous: KindNextSteps, want: true},
		{name: "first section always allowed", kind: KindStats, previous: "", want: true},
		{name: "listed predecessor", kind: KindStats, previous: KindHero, want: true},
		{name: "unlisted predecessor", kind: KindStats, previous: KindContent, want: false},
		// An empty compatibility set is permissive: CtaSection may follow anything.
		{name: "empty set is permissive", kind: KindCTA, previous: KindLegal, want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.CanFollow(tc.kind, tc.previous); got != tc.want {
				t.Fatalf("CanFollow(%q, %q) = %v, want %v", tc.kind, tc.previous, got, tc.want)
			}
		})
	}
}

func TestRules_EmptySetAllowsAnyPredecessorInBuilder(t *testing.T) {
	b := newDefaultBuilder(t, "legal")
	if err := b.AddSection(Section{ID: "cta", Component: KindCTA}); err != nil {
		t.Fatalf("cta after legal content should be allowed: %v", err)
	}
	if result := b.Validate(); !result.Valid {
		t.Fatalf("expected valid page, got %v", result.Errors)
	}
}

func TestRules_Limits(t *testing.T) {
	rules := DefaultRules()
	want := map[string]int{KindHero: 1, KindCTA: 2, KindStats: 1, KindNewsletter: 1}
	for kind, limit := range want {
		got, ok := rules.Limit(kind)
		if !ok || got != limit {
			t.Fatalf("limit for %s = %d (ok=%v), want %d", kind, got, ok, limit)
		}
	}
	if _, ok := rules.Limit(KindContent); ok {
		t.Fatalf("ContentSection should be unlimited")
	}
}

func TestDefaultRules_ReturnsFreshCopies(t *testing.T) {
	first := DefaultRules()
	first.Limits[KindHero] = 99
	first.Order[0] = "mutated"

	second := DefaultRules()
	if second.Limits[KindHero] != 1 || second.Order[0] != KindHero {
		t.Fatalf("DefaultRules shares state between calls")
	}
}
