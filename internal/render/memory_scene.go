package render

import "sync"

// ElementState is what a MemoryScene knows about one element.
type ElementState struct {
	Visible bool
	Level   Level
	XRay    bool
	Units   int
}

// MemoryScene is a headless Scene that records the last command per element.
type MemoryScene struct {
	mu       sync.Mutex
	elements map[int]*ElementState
	commands int
}

func NewMemoryScene() *MemoryScene {
	return &MemoryScene{elements: make(map[int]*ElementState)}
}

func (s *MemoryScene) state(id int) *ElementState {
	st, ok := s.elements[id]
	if !ok {
		st = &ElementState{Visible: true}
		s.elements[id] = st
	}
	return st
}

func (s *MemoryScene) AddRenderable(u Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(u.ElementID).Units++
	s.commands++
}

func (s *MemoryScene) SetVisible(elementID int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(elementID).Visible = visible
	s.commands++
}

func (s *MemoryScene) SetHighlight(elementID int, level Level, xray bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(elementID)
	st.Level = level
	st.XRay = xray
	s.commands++
}

// Element returns the recorded state of an element.
func (s *MemoryScene) Element(id int) (ElementState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.elements[id]
	if !ok {
		return ElementState{}, false
	}
	return *st, true
}

// Commands returns the number of commands received so far.
func (s *MemoryScene) Commands() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}
