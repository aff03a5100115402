package effects

import "sync"

// Spinner is a reference-counted busy indicator. It stays visible until the
// last in-flight operation releases it.
type Spinner struct {
	mu       sync.Mutex
	active   int
	onChange func(visible bool)
}

func NewSpinner(onChange func(visible bool)) *Spinner {
	return &Spinner{onChange: onChange}
}

// Acquire marks one operation in flight. The returned release is idempotent.
func (s *Spinner) Acquire() (release func()) {
	s.mu.Lock()
	s.active++
	if s.active == 1 {
		s.notify(true)
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.active--
			if s.active == 0 {
				s.notify(false)
			}
		})
	}
}

func (s *Spinner) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active > 0
}

// notify runs with mu held so visibility changes are observed in order.
func (s *Spinner) notify(visible bool) {
	if s.onChange != nil {
		s.onChange(visible)
	}
}
