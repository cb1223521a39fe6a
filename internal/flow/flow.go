// Package flow decides which wizard step a user may visit next.
//
// The wizard is Upload, Review, Applicants, Owners, Payment, Confirm. When
// every loaded entity is an exemption filing there are no owners to collect,
// so Applicants and Owners are skipped in both directions.
package flow

import (
	"fmt"

	"github.com/JonMunkholm/intake/internal/core"
)

// Step is a wizard position.
type Step int

const (
	StepUpload Step = iota
	StepReview
	StepApplicants
	StepOwners
	StepPayment
	StepConfirm
)

var stepNames = [...]string{"upload", "review", "applicants", "owners", "payment", "confirm"}

func (s Step) String() string {
	if s.Valid() {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepUpload && s <= StepConfirm
}

// ParseStep converts a step name back to a Step.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// MarshalText encodes a step by name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name.
func (s *Step) UnmarshalText(b []byte) error {
	v, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AllExemption reports whether the list is non-empty and every entity is an
// exemption filing.
func AllExemption(entities []*core.Entity) bool {
	if len(entities) == 0 {
		return false
	}
	for _, e := range entities {
		if e.FilingType != core.FilingExemption {
			return false
		}
	}
	return true
}

// State is what the controller needs to know about the current session.
type State struct {
	EntitiesLoaded bool `json:"entitiesLoaded"`
	AllExemption   bool `json:"allExemption"`
	ReviewPassed   bool `json:"reviewPassed"`
	HasSelection   bool `json:"hasSelection"`
}

// StateFor derives a State from the loaded entities.
func StateFor(entities []*core.Entity, reviewPassed, hasSelection bool) State {
	return State{
		EntitiesLoaded: len(entities) > 0,
		AllExemption:   AllExemption(entities),
		ReviewPassed:   reviewPassed,
		HasSelection:   hasSelection,
	}
}

// Skipped reports whether s is bypassed because every entity is an exemption.
func Skipped(s Step, allExemption bool) bool {
	return allExemption && (s == StepApplicants || s == StepOwners)
}

// Next returns the step after s. The last step returns itself.
func Next(s Step, allExemption bool) Step {
	for n := s + 1; n <= StepConfirm; n++ {
		if !Skipped(n, allExemption) {
			return n
		}
	}
	return s
}

// Prev returns the step before s. The first step returns itself.
func Prev(s Step, allExemption bool) Step {
	for p := s - 1; p >= StepUpload; p-- {
		if !Skipped(p, allExemption) {
			return p
		}
	}
	return s
}

// Ready reports whether the forward precondition of step s holds.
func Ready(s Step, st State) bool {
	switch s {
	case StepUpload:
		return true
	case StepReview:
		return st.EntitiesLoaded
	case StepApplicants, StepOwners:
		return st.EntitiesLoaded && !st.AllExemption
	case StepPayment:
		return st.EntitiesLoaded && st.ReviewPassed
	case StepConfirm:
		return st.HasSelection
	default:
		return false
	}
}

// Tracker remembers the furthest step a user has reached.
type Tracker struct {
	HighWater Step `json:"highWater"`
}

// CanAccess reports whether the user may open step s: either they have been
// there before or its precondition now holds. Skipped steps are never
// accessible.
func (t *Tracker) CanAccess(s Step, st State) bool {
	if !s.Valid() || Skipped(s, st.AllExemption) {
		return false
	}
	return s <= t.HighWater || Ready(s, st)
}

// Visit records a visit to s, raising the high-water mark.
func (t *Tracker) Visit(s Step) {
	if s.Valid() && s > t.HighWater {
		t.HighWater = s
	}
}

// Resume places a user who claims to be on s. A step they may access is
// recorded as visited; any other claim falls back to the high-water mark.
func (t *Tracker) Resume(s Step, st State) Step {
	if !t.CanAccess(s, st) {
		return t.HighWater
	}
	t.Visit(s)
	return s
}

// Advance moves forward from s if the next step is accessible and returns
// the step the user ends up on.
func (t *Tracker) Advance(s Step, st State) Step {
	n := Next(s, st.AllExemption)
	if n == s || !t.CanAccess(n, st) {
		return s
	}
	t.Visit(n)
	return n
}
