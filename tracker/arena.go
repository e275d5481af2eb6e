package tracker

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skinmetric/go-lesion/metrics"
)

// DefaultDescriptorAlpha is the weight the running descriptor keeps when a
// new observation is blended in
const DefaultDescriptorAlpha = 0.9

// Arena is an in-memory store of tracked features keyed by stable id.  It
// folds the results of each capture's matching into the feature histories.
type Arena struct {
	// alpha value used in EMA smoothing of descriptors
	alpha float32
	// features by id
	features map[string]*TrackedFeature
	// order of creation, used to list features deterministically
	order []string
	sync.Mutex
}

// NewArena returns an empty arena.  alpha is the descriptor smoothing
// weight, values outside (0,1) use DefaultDescriptorAlpha.
func NewArena(alpha float32) *Arena {

	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultDescriptorAlpha
	}

	return &Arena{
		alpha:    alpha,
		features: make(map[string]*TrackedFeature),
	}
}

// Apply folds one capture into the arena.  observations, results and
// measured are parallel slices indexed by the current feature.  Tracked
// results append to their feature, new results create a feature.  Features
// not matched in this capture have their consecutive count reset.  The
// returned slice holds the feature id for every current feature.
func (a *Arena) Apply(at time.Time, observations []Observation,
	results []MatchResult, measured []metrics.Metrics) ([]string, error) {

	if len(results) != len(observations) || len(measured) != len(observations) {
		return nil, fmt.Errorf("apply needs parallel slices, got %d observations, %d results, %d metrics",
			len(observations), len(results), len(measured))
	}

	a.Lock()
	defer a.Unlock()

	ids := make([]string, len(results))
	seen := make(map[string]bool, len(results))

	for _, r := range results {
		if r.Outcome != OutcomeTracked {
			continue
		}

		if _, ok := a.features[r.TrackedID]; !ok {
			return nil, fmt.Errorf("result %d refers to unknown feature %q", r.Index, r.TrackedID)
		}

		if seen[r.TrackedID] {
			return nil, fmt.Errorf("feature %q matched more than once", r.TrackedID)
		}

		seen[r.TrackedID] = true
	}

	for i, r := range results {
		obs := observations[i]
		rec := Record{Time: at, Metrics: measured[i]}

		if r.Outcome == OutcomeTracked {
			tf := a.features[r.TrackedID]
			tf.SurfaceX = obs.SurfaceX
			tf.SurfaceY = obs.SurfaceY
			tf.LastSeen = at
			tf.ConsecutiveCount++
			tf.History = append(tf.History, rec)

			if len(obs.Descriptor) > 0 {
				tf.Descriptor = smoothDescriptor(tf.Descriptor, obs.Descriptor, a.alpha)
			}

			ids[i] = tf.ID
			continue
		}

		tf := &TrackedFeature{
			ID:               uuid.New().String(),
			Class:            obs.Class,
			SurfaceX:         obs.SurfaceX,
			SurfaceY:         obs.SurfaceY,
			Descriptor:       smoothDescriptor(nil, obs.Descriptor, a.alpha),
			FirstSeen:        at,
			LastSeen:         at,
			ConsecutiveCount: 1,
			History:          []Record{rec},
		}

		a.features[tf.ID] = tf
		a.order = append(a.order, tf.ID)
		seen[tf.ID] = true
		ids[i] = tf.ID
	}

	for id, tf := range a.features {
		if !seen[id] {
			tf.ConsecutiveCount = 0
		}
	}

	return ids, nil
}

// Get returns a copy of the feature with the given id
func (a *Arena) Get(id string) (*TrackedFeature, bool) {
	a.Lock()
	defer a.Unlock()

	tf, ok := a.features[id]

	if !ok {
		return nil, false
	}

	return tf.clone(), true
}

// All returns copies of every feature in creation order, ready to pass to
// Matcher.Match
func (a *Arena) All() []*TrackedFeature {
	a.Lock()
	defer a.Unlock()

	out := make([]*TrackedFeature, 0, len(a.order))

	for _, id := range a.order {
		out = append(out, a.features[id].clone())
	}

	return out
}

// Len returns the number of tracked features
func (a *Arena) Len() int {
	a.Lock()
	defer a.Unlock()

	return len(a.features)
}

// Rename sets the user assigned name of a feature
func (a *Arena) Rename(id, name string) error {
	a.Lock()
	defer a.Unlock()

	tf, ok := a.features[id]

	if !ok {
		return fmt.Errorf("unknown feature %q", id)
	}

	tf.Name = name
	return nil
}

// Series returns one metric of a feature's history in time order
func (a *Arena) Series(id string, value func(metrics.Metrics) float64) ([]metrics.Sample, bool) {
	a.Lock()
	defer a.Unlock()

	tf, ok := a.features[id]

	if !ok {
		return nil, false
	}

	series := tf.Series(value)

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Time.Before(series[j].Time)
	})

	return series, true
}
