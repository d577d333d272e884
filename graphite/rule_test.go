package graphite

import "testing"

func TestMergeRulesSortDescending(t *testing.T) {
	dst := []*Rule{{Sort: 9, loadOrder: 0}, {Sort: 3, loadOrder: 1}}
	src := []*Rule{{Sort: 5, loadOrder: 2}}

	got := mergeRules(dst, src)
	want := []int{9, 5, 3}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Sort != want[i] {
			t.Fatalf("got[%d].Sort = %d, want %d", i, r.Sort, want[i])
		}
	}
}

func TestMergeRulesLoadOrderTieBreak(t *testing.T) {
	dst := []*Rule{{Sort: 5, loadOrder: 10}}
	src := []*Rule{{Sort: 5, loadOrder: 2}}

	got := mergeRules(dst, src)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].loadOrder != 2 || got[1].loadOrder != 10 {
		t.Fatalf("got load orders (%d,%d), want (2,10)", got[0].loadOrder, got[1].loadOrder)
	}
}

func TestMergeRulesCapsAtMaxRules(t *testing.T) {
	var dst []*Rule
	for i := 0; i < MaxRules; i++ {
		dst = append(dst, &Rule{Sort: MaxRules - i, loadOrder: i})
	}
	src := []*Rule{{Sort: 1000, loadOrder: MaxRules}}

	got := mergeRules(dst, src)
	if len(got) != MaxRules {
		t.Fatalf("len(got) = %d, want %d", len(got), MaxRules)
	}
	if got[0].Sort != 1000 {
		t.Fatalf("got[0].Sort = %d, want 1000 (the highest-sort rule must survive the cap)", got[0].Sort)
	}
}
