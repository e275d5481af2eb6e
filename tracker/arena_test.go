package tracker

import (
	"math"
	"testing"
	"time"

	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/metrics"
)

// capture runs one match and apply round against the arena
func capture(t *testing.T, a *Arena, m *Matcher, at time.Time,
	obs []Observation, areas []float64) ([]MatchResult, []string) {
	t.Helper()

	results, err := m.Match(obs, a.All())

	if err != nil {
		t.Fatalf("Match returned an error: %v", err)
	}

	measured := make([]metrics.Metrics, len(areas))

	for i, area := range areas {
		measured[i] = metrics.Metrics{AreaMM2: area}
	}

	ids, err := a.Apply(at, obs, results, measured)

	if err != nil {
		t.Fatalf("Apply returned an error: %v", err)
	}

	return results, ids
}

func TestArenaTracksAcrossCaptures(t *testing.T) {

	a := NewArena(0)
	m := newTestMatcher(t)
	day0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	obs := []Observation{
		{CandidateID: 1, Class: feature.ClassPapule, SurfaceX: 0.2, SurfaceY: 0.2, Descriptor: []float32{3, 4}},
		{CandidateID: 2, Class: feature.ClassPustule, SurfaceX: 0.7, SurfaceY: 0.6, Descriptor: []float32{0, 1}},
	}

	results, ids := capture(t, a, m, day0, obs, []float64{10, 6})

	for i, r := range results {
		if r.Outcome != OutcomeNew {
			t.Errorf("first capture result %d expected new, got %v", i, r.Outcome)
		}
	}

	if a.Len() != 2 {
		t.Fatalf("expected 2 tracked features, got %d", a.Len())
	}

	first, ok := a.Get(ids[0])

	if !ok {
		t.Fatalf("feature %q not found", ids[0])
	}

	// descriptors are stored unit length
	if n := math.Hypot(float64(first.Descriptor[0]), float64(first.Descriptor[1])); math.Abs(n-1) > 1e-6 {
		t.Errorf("expected unit descriptor, got norm %v", n)
	}

	// only the papule is seen again, slightly shrunk and moved
	for day := 1; day <= 3; day++ {
		next := []Observation{
			{CandidateID: 1, Class: feature.ClassPapule, SurfaceX: 0.2 + 0.01*float64(day), SurfaceY: 0.2, Descriptor: []float32{3, 4}},
		}

		results, got := capture(t, a, m, day0.Add(time.Duration(day)*24*time.Hour),
			next, []float64{10 - float64(day)})

		if results[0].Outcome != OutcomeTracked || got[0] != ids[0] {
			t.Fatalf("day %d: expected tracked as %q, got %v %q", day, ids[0], results[0].Outcome, got[0])
		}
	}

	papule, _ := a.Get(ids[0])
	pustule, _ := a.Get(ids[1])

	if papule.ConsecutiveCount != 4 {
		t.Errorf("expected consecutive count 4, got %d", papule.ConsecutiveCount)
	}

	if pustule.ConsecutiveCount != 0 {
		t.Errorf("expected absent feature count reset to 0, got %d", pustule.ConsecutiveCount)
	}

	if math.Abs(papule.SurfaceX-0.23) > 1e-9 {
		t.Errorf("expected surface x updated to 0.23, got %v", papule.SurfaceX)
	}

	if !papule.FirstSeen.Equal(day0) || !papule.LastSeen.Equal(day0.Add(72*time.Hour)) {
		t.Errorf("unexpected first/last seen %v %v", papule.FirstSeen, papule.LastSeen)
	}

	series, ok := a.Series(ids[0], Area)

	if !ok || len(series) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(series))
	}

	rate, ok := papule.HealingRate(Area, 0)

	if !ok {
		t.Fatal("expected a healing rate")
	}

	// area falls by 1 mm2 a day from 10
	if math.Abs(rate.PercentPerDay+10) > 1e-6 {
		t.Errorf("expected -10 %%/day, got %v", rate.PercentPerDay)
	}
}

func TestArenaRenameAndCopies(t *testing.T) {

	a := NewArena(0.5)
	m := newTestMatcher(t)

	_, ids := capture(t, a, m, time.Unix(0, 0),
		[]Observation{{CandidateID: 1, Class: feature.ClassScar}}, []float64{4})

	if err := a.Rename(ids[0], "left cheek"); err != nil {
		t.Fatalf("Rename returned an error: %v", err)
	}

	if err := a.Rename("missing", "x"); err == nil {
		t.Error("expected error renaming unknown feature")
	}

	tf, _ := a.Get(ids[0])

	if tf.Name != "left cheek" {
		t.Errorf("expected name to be set, got %q", tf.Name)
	}

	// mutating a copy leaves the arena untouched
	tf.History = nil

	again, _ := a.Get(ids[0])

	if len(again.History) != 1 {
		t.Errorf("expected arena history intact, got %d records", len(again.History))
	}
}

func TestArenaApplyRejectsBadInput(t *testing.T) {

	a := NewArena(0)

	obs := []Observation{{CandidateID: 1}}

	if _, err := a.Apply(time.Now(), obs, nil, nil); err == nil {
		t.Error("expected error for mismatched slices")
	}

	results := []MatchResult{{Index: 0, TrackedID: "ghost", Outcome: OutcomeTracked}}

	if _, err := a.Apply(time.Now(), obs, results, make([]metrics.Metrics, 1)); err == nil {
		t.Error("expected error for unknown tracked id")
	}
}
