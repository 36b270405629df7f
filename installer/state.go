package installer

import (
	"os"
	"sync"
)

// Snapshot is a copy of the user's choices taken at one instant.
type Snapshot struct {
	Destination           string
	Deluxe                bool
	IncludeOptionalAssets bool
	Volume                float64
	AbortRequested        bool
}

// State is the shared install state. Every accessor holds the lock only for
// the single field it touches; callers must never hold it across I/O.
//
// The abort flag is written by the controller side only. Once set it stays
// set until the next worker start, which happens after the previous run was
// joined.
type State struct {
	mu                    sync.Mutex
	destination           string
	deluxe                bool
	includeOptionalAssets bool
	volume                float64
	abortRequested        bool
}

// NewState creates state with the given destination and default options.
func NewState(destination string) *State {
	return &State{
		destination: destination,
		volume:      1.0,
	}
}

// DefaultState creates state whose destination is the working directory.
func DefaultState() *State {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return NewState(cwd)
}

// Snapshot copies all fields under a single lock acquisition.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Destination:           s.destination,
		Deluxe:                s.deluxe,
		IncludeOptionalAssets: s.includeOptionalAssets,
		Volume:                s.volume,
		AbortRequested:        s.abortRequested,
	}
}

func (s *State) Destination() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destination
}

func (s *State) SetDestination(path string) {
	s.mu.Lock()
	s.destination = path
	s.mu.Unlock()
}

func (s *State) Deluxe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deluxe
}

// ToggleDeluxe flips the variant flag and returns the new value.
func (s *State) ToggleDeluxe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deluxe = !s.deluxe
	return s.deluxe
}

func (s *State) SetDeluxe(v bool) {
	s.mu.Lock()
	s.deluxe = v
	s.mu.Unlock()
}

func (s *State) IncludeOptionalAssets() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.includeOptionalAssets
}

// ToggleOptionalAssets flips the optional-assets flag and returns the new value.
func (s *State) ToggleOptionalAssets() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.includeOptionalAssets = !s.includeOptionalAssets
	return s.includeOptionalAssets
}

func (s *State) SetIncludeOptionalAssets(v bool) {
	s.mu.Lock()
	s.includeOptionalAssets = v
	s.mu.Unlock()
}

func (s *State) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume stores v clamped to [0, 1].
func (s *State) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

// ToggleMute switches volume between silent and full and returns the new level.
func (s *State) ToggleMute() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volume == 0 {
		s.volume = 1.0
	} else {
		s.volume = 0
	}
	return s.volume
}

// RequestAbort sets the abort flag.
func (s *State) RequestAbort() {
	s.mu.Lock()
	s.abortRequested = true
	s.mu.Unlock()
}

// AbortRequested samples the abort flag.
func (s *State) AbortRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abortRequested
}

// resetAbort clears the abort flag. Only Worker.Start calls it, after the
// previous run has been joined.
func (s *State) resetAbort() {
	s.mu.Lock()
	s.abortRequested = false
	s.mu.Unlock()
}
