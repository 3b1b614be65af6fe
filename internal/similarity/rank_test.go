package similarity

import (
	"fmt"
	"math"
	"testing"

	"github.com/matsen/paperrank/internal/paper"
)

func papersN(n int) []paper.Paper {
	ps := make([]paper.Paper, n)
	for i := range ps {
		ps[i] = paper.Paper{ID: fmt.Sprint(i), Title: fmt.Sprintf("Paper %d", i)}
	}
	return ps
}

func TestRank_SelfExcludesDiagonal(t *testing.T) {
	m := Matrix{
		{1, 0.9, 0.2},
		{0.9, 1, 0.5},
		{0.2, 0.5, 1},
	}
	ps := papersN(3)

	pairs := Rank(m, ps, ps, Options{TopK: 3, Threshold: -1, ExcludeSelf: true, Method: MethodTFIDF})

	for _, p := range pairs {
		if p.ID1 == p.ID2 {
			t.Errorf("diagonal returned: %+v", p)
		}
		if p.Method != MethodTFIDF {
			t.Errorf("Method = %s, want TFIDF", p.Method)
		}
	}
	if len(pairs) != 6 {
		t.Errorf("len(pairs) = %d, want 6", len(pairs))
	}
	if m[1][1] != excludedSimilarity {
		t.Errorf("diagonal = %v, want %v", m[1][1], excludedSimilarity)
	}
}

func TestRank_OrderTopKThreshold(t *testing.T) {
	m := Matrix{
		{0.1, 0.8, 0.3, 0.95, 0.6},
	}
	queries := papersN(1)
	candidates := papersN(5)

	tests := []struct {
		name      string
		topK      int
		threshold float64
		wantIDs   []string
	}{
		{"top 3", 3, 0, []string{"3", "1", "4"}},
		{"threshold cuts", 5, 0.5, []string{"3", "1", "4"}},
		{"top 2 with threshold", 2, 0.7, []string{"3", "1"}},
		{"nothing passes", 5, 0.99, nil},
		{"all", 10, 0, []string{"3", "1", "4", "2", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := Rank(m, queries, candidates, Options{TopK: tt.topK, Threshold: tt.threshold})
			if len(pairs) != len(tt.wantIDs) {
				t.Fatalf("Rank() returned %d pairs, want %d: %+v", len(pairs), len(tt.wantIDs), pairs)
			}
			for i, p := range pairs {
				if p.ID2 != tt.wantIDs[i] {
					t.Errorf("pairs[%d].ID2 = %s, want %s", i, p.ID2, tt.wantIDs[i])
				}
				if p.Similarity < tt.threshold {
					t.Errorf("pairs[%d] below threshold: %v", i, p.Similarity)
				}
				if i > 0 && pairs[i-1].Similarity < p.Similarity {
					t.Errorf("pairs not sorted descending at %d", i)
				}
			}
		})
	}
}

func TestRank_TiesKeepLowerIndexFirst(t *testing.T) {
	m := Matrix{{0.5, 0.5, 0.5}}
	pairs := Rank(m, papersN(1), papersN(3), Options{TopK: 2})

	if len(pairs) != 2 || pairs[0].ID2 != "0" || pairs[1].ID2 != "1" {
		t.Errorf("Rank() = %+v, want candidates 0 then 1", pairs)
	}
}

func TestRank_DiagonalNeverReturnedAtMinimumThreshold(t *testing.T) {
	m := Matrix{{1, -1}, {-1, 1}}
	ps := papersN(2)

	pairs := Rank(m, ps, ps, Options{TopK: 5, Threshold: -1, ExcludeSelf: true})
	for _, p := range pairs {
		if p.ID1 == p.ID2 {
			t.Errorf("diagonal returned: %+v", p)
		}
	}
	if len(pairs) != 2 {
		t.Errorf("len(pairs) = %d, want 2", len(pairs))
	}
}

func TestMeanSimilarity(t *testing.T) {
	m := Matrix{
		{1, 0, 0.5},
		{0.2, 0.4, 0.6},
	}
	got := MeanSimilarity(m)
	want := []float64{0.5, 0.4}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("MeanSimilarity()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCheckSize(t *testing.T) {
	if err := CheckSize(100, 100, 10000); err != nil {
		t.Errorf("CheckSize() error = %v, want nil at limit", err)
	}
	if err := CheckSize(100, 101, 10000); err == nil {
		t.Error("CheckSize() expected error above limit")
	}
	if err := CheckSize(1<<20, 1<<20, 0); err != nil {
		t.Errorf("CheckSize() error = %v, want nil when disabled", err)
	}
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"tfidf": MethodTFIDF, "SBERT": MethodSBERT} {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMethod("bm25"); err == nil {
		t.Error("ParseMethod(bm25) expected error")
	}
	if MethodSBERT.Flag() != "sbert" {
		t.Errorf("Flag() = %s, want sbert", MethodSBERT.Flag())
	}
}
