// Package params holds the user-tunable matching configuration and the last
// observed size of the remote job corpus.
package params

import (
	"math"
	"strconv"
	"sync"
)

const (
	MinThreshold     = 0.1
	MaxThreshold     = 0.9
	ThresholdStep    = 0.05
	DefaultThreshold = 0.2
)

// Snapshot is an immutable copy of the matching parameters taken at a single instant.
type Snapshot struct {
	Resume         *Resume
	Threshold      float64
	EntryLevelOnly bool
}

// HasResume reports whether a résumé was selected when the snapshot was taken.
func (s Snapshot) HasResume() bool {
	return s.Resume != nil && len(s.Resume.Data) > 0
}

// Store is the single source of the current matching configuration.
// It is written by the presentation layer and read by the workflow via Snapshot.
type Store struct {
	mu             sync.RWMutex
	resume         *Resume
	threshold      float64
	entryLevelOnly bool
	jobCount       int
}

func New() *Store {
	return &Store{
		threshold: DefaultThreshold,
	}
}

// SetResume replaces the selected résumé. A nil résumé is ignored: a selection
// can be overwritten but never cleared.
func (s *Store) SetResume(r *Resume) {
	if r == nil {
		return
	}

	s.mu.Lock()
	s.resume = r.clone()
	s.mu.Unlock()
}

// SetThreshold stores v clamped into [MinThreshold, MaxThreshold] and snapped to
// the ThresholdStep grid. NaN and infinities are ignored. The stored value is returned.
func (s *Store) SetThreshold(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s.threshold
	}

	s.threshold = NormalizeThreshold(v)
	return s.threshold
}

func (s *Store) SetEntryLevelOnly(v bool) {
	s.mu.Lock()
	s.entryLevelOnly = v
	s.mu.Unlock()
}

// SetJobCount records the corpus size observed by a successful read.
func (s *Store) SetJobCount(n int) {
	if n < 0 {
		return
	}

	s.mu.Lock()
	s.jobCount = n
	s.mu.Unlock()
}

func (s *Store) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.jobCount
}

// Snapshot returns a copy of the current parameters. The résumé payload is
// copied, so later reselection never changes a request that is already in flight.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Resume:         s.resume.clone(),
		Threshold:      s.threshold,
		EntryLevelOnly: s.entryLevelOnly,
	}
}

// NormalizeThreshold clamps v into the accepted range and rounds it to the nearest step.
func NormalizeThreshold(v float64) float64 {
	v = math.Max(MinThreshold, math.Min(MaxThreshold, v))
	steps := math.Round(1 / ThresholdStep)

	return math.Round(v*steps) / steps
}

// FormatThreshold renders a threshold the way the remote service expects it: plain decimal text.
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
