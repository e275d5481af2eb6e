package tracker

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned when matcher parameters are unusable
var ErrInvalidParams = errors.New("invalid matcher params")

// Outcome classifies a feature after matching
type Outcome int

const (
	// OutcomeNew is a current feature with no acceptable tracked partner
	OutcomeNew Outcome = iota
	// OutcomeTracked is a current feature paired with a tracked feature
	OutcomeTracked
	// OutcomeLost is a tracked feature not seen in the current capture.  The
	// matcher never emits it, see LostIDs.
	OutcomeLost
)

// String returns the outcome tag
func (o Outcome) String() string {
	switch o {
	case OutcomeNew:
		return "new"
	case OutcomeTracked:
		return "tracked"
	case OutcomeLost:
		return "lost"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Params defines the matcher cost weights and acceptance threshold
type Params struct {
	// WeightSurface scales the canonical surface coordinate distance
	WeightSurface float64
	// WeightAppearance scales 1 - cosine similarity of the descriptors
	WeightAppearance float64
	// WeightClass is added when the classes differ
	WeightClass float64
	// MaxMatchDistance is the highest cost an assigned pair may have and
	// still be tracked
	MaxMatchDistance float64
}

// DefaultParams returns the default matcher weights
func DefaultParams() Params {
	return Params{
		WeightSurface:    0.6,
		WeightAppearance: 0.3,
		WeightClass:      0.1,
		MaxMatchDistance: 0.5,
	}
}

// Validate checks the weights are finite and non-negative and the threshold
// is positive
func (p Params) Validate() error {

	for name, w := range map[string]float64{
		"surface":    p.WeightSurface,
		"appearance": p.WeightAppearance,
		"class":      p.WeightClass,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidParams, name, w)
		}
	}

	if !(p.MaxMatchDistance > 0) || math.IsInf(p.MaxMatchDistance, 0) {
		return fmt.Errorf("%w: max match distance %v", ErrInvalidParams,
			p.MaxMatchDistance)
	}

	return nil
}

// MatchResult pairs a current feature with a tracked identity, or none
type MatchResult struct {
	// Index is the position of the feature in the current slice
	Index int
	// CandidateID is the detection id of the current feature
	CandidateID int64
	// TrackedID is the identity the feature was matched to, empty when new
	TrackedID string
	// Score is 1 - cost for tracked features and 0 for new ones
	Score float64
	// Cost is the assignment cost of the solver pair, or -1 if the solver left
	// the feature unassigned
	Cost float64
	// Outcome is the classification of the current feature
	Outcome Outcome
}

// Matcher assigns features of the current capture to tracked identities
type Matcher struct {
	params Params
}

// NewMatcher returns a matcher, or an error wrapping ErrInvalidParams
func NewMatcher(p Params) (*Matcher, error) {

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &Matcher{params: p}, nil
}

// Params returns the matcher configuration
func (m *Matcher) Params() Params {
	return m.params
}

// Cost returns the weighted cost between a current observation and a
// tracked feature
func (m *Matcher) Cost(obs Observation, tf *TrackedFeature) float64 {

	surface := math.Hypot(obs.SurfaceX-tf.SurfaceX, obs.SurfaceY-tf.SurfaceY)
	appearance := AppearanceDistance(obs.Descriptor, tf.Descriptor)

	mismatch := 0.0

	if obs.Class != tf.Class {
		mismatch = 1
	}

	return m.params.WeightSurface*surface +
		m.params.WeightAppearance*appearance +
		m.params.WeightClass*mismatch
}

// CostMatrix builds the len(current) x len(tracked) cost matrix
func (m *Matcher) CostMatrix(current []Observation, tracked []*TrackedFeature) [][]float64 {

	cost := make([][]float64, len(current))

	for i, obs := range current {
		cost[i] = make([]float64, len(tracked))

		for j, tf := range tracked {
			cost[i][j] = m.Cost(obs, tf)
		}
	}

	return cost
}

// Match returns one result per current feature in input order.  Pairs are
// found by optimal assignment over the cost matrix, then any pair costing
// more than MaxMatchDistance is reclassified as new.  Tracked features
// without a partner produce no result.
func (m *Matcher) Match(current []Observation, tracked []*TrackedFeature) ([]MatchResult, error) {

	for j, tf := range tracked {
		if tf == nil {
			return nil, fmt.Errorf("tracked feature %d is nil", j)
		}
	}

	results := make([]MatchResult, len(current))

	for i, obs := range current {
		results[i] = MatchResult{
			Index:       i,
			CandidateID: obs.CandidateID,
			Cost:        -1,
			Outcome:     OutcomeNew,
		}
	}

	if len(current) == 0 || len(tracked) == 0 {
		return results, nil
	}

	cost := m.CostMatrix(current, tracked)

	rowSol, _, err := Solve(cost)

	if err != nil {
		return nil, fmt.Errorf("error solving feature assignment: %w", err)
	}

	for i, j := range rowSol {
		if j < 0 {
			continue
		}

		c := cost[i][j]
		results[i].Cost = c

		if c > m.params.MaxMatchDistance {
			continue
		}

		results[i].TrackedID = tracked[j].ID
		results[i].Score = math.Max(0, 1-c)
		results[i].Outcome = OutcomeTracked
	}

	return results, nil
}

// LostIDs returns the ids of tracked features no result was matched to, in
// the order of tracked
func LostIDs(results []MatchResult, tracked []*TrackedFeature) []string {

	seen := make(map[string]bool, len(results))

	for _, r := range results {
		if r.Outcome == OutcomeTracked {
			seen[r.TrackedID] = true
		}
	}

	var lost []string

	for _, tf := range tracked {
		if tf != nil && !seen[tf.ID] {
			lost = append(lost, tf.ID)
		}
	}

	return lost
}
