package service

import "testing"

func TestComputeChangeMetrics(t *testing.T) {
	tests := []struct {
		name        string
		prev, next  string
		added       int
		removed     int
	}{
		{"no previous counts everything added", "", "<p>hello</p>", 12, 0},
		{"identical content is a zero diff", "<p>same</p>", "<p>same</p>", 0, 0},
		{"pure insertion", "<p>ab</p>", "<p>abcd</p>", 2, 0},
		{"pure deletion", "<p>abcd</p>", "<p>ab</p>", 0, 2},
		{"both empty", "", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeChangeMetrics(tt.prev, tt.next)
			if m.Added != tt.added || m.Removed != tt.removed {
				t.Errorf("ComputeChangeMetrics = {Added:%d Removed:%d}, want {Added:%d Removed:%d}",
					m.Added, m.Removed, tt.added, tt.removed)
			}
		})
	}
}

func TestComputeChangeMetrics_Symmetry(t *testing.T) {
	a := "<p>the quick brown fox</p>"
	b := "<p>the slow brown dog</p>"

	forward := ComputeChangeMetrics(a, b)
	backward := ComputeChangeMetrics(b, a)

	if forward.Added != backward.Removed || forward.Removed != backward.Added {
		t.Errorf("diff must be symmetric: forward=%+v backward=%+v", forward, backward)
	}
}

func TestComputeChangeMetrics_CountsRunes(t *testing.T) {
	m := ComputeChangeMetrics("", "한글")
	if m.Added != 2 {
		t.Errorf("multibyte characters must count once each, got %d", m.Added)
	}
}
