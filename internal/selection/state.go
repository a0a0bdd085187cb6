// Package selection holds the area and date range a user has chosen for analysis.
package selection

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// ErrInvalidCoordinates is reported when the manual coordinate form cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid latitude or longitude")

// InvalidCoordinatesMessage is what hosts show for ErrInvalidCoordinates.
const InvalidCoordinatesMessage = "Please enter valid latitude and longitude values"

// Snapshot is a consistent copy of the state.
type Snapshot struct {
	Area  domain.SelectedArea `json:"coordinates"`
	Dates domain.DateRange    `json:"dates"`
}

// Ready reports whether the snapshot has an area and both dates.
func (s Snapshot) Ready() bool {
	return !s.Area.IsEmpty() && s.Dates.Complete()
}

// Request converts the snapshot into an analysis request.
func (s Snapshot) Request() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Coordinates: s.Area.Clone(),
		StartDate:   s.Dates.Start,
		EndDate:     s.Dates.End,
	}
}

// State merges drawn areas and manual coordinates; the most recent input wins.
type State struct {
	mu       sync.RWMutex
	area     domain.SelectedArea
	dates    domain.DateRange
	onChange func(Snapshot)
}

func New() *State { return &State{} }

// SetArea replaces the selection. An empty area clears it.
func (s *State) SetArea(area domain.SelectedArea) {
	s.mu.Lock()
	s.area = area.Clone()
	s.mu.Unlock()
	s.changed()
}

// SubmitCoordinates selects a single point from the latitude and longitude text fields.
// On failure the previous selection is kept.
func (s *State) SubmitCoordinates(latText, lngText string) error {
	c, err := domain.ParseCoordinate(latText, lngText)
	if err != nil {
		return errors.Join(ErrInvalidCoordinates, err)
	}
	s.SetArea(domain.SelectedArea{c})
	return nil
}

func (s *State) SetStartDate(date string) {
	s.mu.Lock()
	s.dates.Start = date
	s.mu.Unlock()
	s.changed()
}

func (s *State) SetEndDate(date string) {
	s.mu.Lock()
	s.dates.End = date
	s.mu.Unlock()
	s.changed()
}

// Reset clears the area and both dates.
func (s *State) Reset() {
	s.mu.Lock()
	s.area = nil
	s.dates = domain.DateRange{}
	s.mu.Unlock()
	s.changed()
}

// OnChange registers fn to receive a snapshot after every change, replacing any
// earlier observer. fn runs on the goroutine that made the change.
func (s *State) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *State) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Snapshot())
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Area: s.area.Clone(), Dates: s.dates}
}

func (s *State) Ready() bool { return s.Snapshot().Ready() }

// Follow applies every area received on ch until ch is closed or ctx ends.
func (s *State) Follow(ctx context.Context, ch <-chan domain.SelectedArea) {
	for {
		select {
		case <-ctx.Done():
			return
		case area, ok := <-ch:
			if !ok {
				return
			}
			s.SetArea(area)
		}
	}
}
