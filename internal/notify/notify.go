// Package notify keeps the stack of transient status messages shown after
// each action. A message is visible for a display period, then fades, then
// disappears.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

const (
	DefaultDisplay = 3000 * time.Millisecond
	DefaultFade    = 300 * time.Millisecond
)

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
	Fading    bool      `json:"fading"`
}

type entry struct {
	Notification
	timer *time.Timer
}

type Options struct {
	Display time.Duration
	// Fade of zero means DefaultFade; negative removes the fade step.
	Fade time.Duration
	// OnChange runs after every change to the stack, outside the lock.
	OnChange func()
}

type Service struct {
	mu       sync.Mutex
	display  time.Duration
	fade     time.Duration
	onChange func()
	items    []*entry
	closed   bool
}

func New(o Options) *Service {
	if o.Display <= 0 {
		o.Display = DefaultDisplay
	}
	switch {
	case o.Fade == 0:
		o.Fade = DefaultFade
	case o.Fade < 0:
		o.Fade = 0
	}
	return &Service{
		display:  o.Display,
		fade:     o.Fade,
		onChange: o.OnChange,
	}
}

// SetOnChange replaces the change hook. Used when the hook's owner is built
// after the service.
func (s *Service) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Notify pushes a message on top of the stack and returns its id.
func (s *Service) Notify(message string, sev Severity) string {
	e := &entry{Notification: Notification{
		ID:        "n_" + uuid.NewString(),
		Message:   message,
		Severity:  sev,
		CreatedAt: time.Now().UTC(),
	}}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ""
	}
	e.timer = time.AfterFunc(s.display, func() { s.startFade(e) })
	s.items = append(s.items, e)
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return e.ID
}

func (s *Service) startFade(e *entry) {
	s.mu.Lock()
	if !s.contains(e) {
		s.mu.Unlock()
		return
	}
	e.Fading = true
	e.timer = time.AfterFunc(s.fade, func() { s.expire(e) })
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (s *Service) expire(e *entry) {
	s.mu.Lock()
	removed := s.remove(e.ID) != nil
	hook := s.onChange
	s.mu.Unlock()

	if removed && hook != nil {
		hook()
	}
}

// Dismiss removes a notification before its timers run out.
func (s *Service) Dismiss(id string) bool {
	s.mu.Lock()
	e := s.remove(id)
	hook := s.onChange
	s.mu.Unlock()

	if e == nil {
		return false
	}
	if hook != nil {
		hook()
	}
	return true
}

// Active returns the current stack, oldest first.
func (s *Service) Active() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, len(s.items))
	for i, e := range s.items {
		out[i] = e.Notification
	}
	return out
}

// Close stops every pending timer and drops the stack. Later Notify calls
// are ignored.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.items {
		e.timer.Stop()
	}
	s.items = nil
	s.closed = true
}

func (s *Service) contains(e *entry) bool {
	return slices.Contains(s.items, e)
}

// remove must be called with mu held.
func (s *Service) remove(id string) *entry {
	i := slices.IndexFunc(s.items, func(e *entry) bool { return e.ID == id })
	if i < 0 {
		return nil
	}
	e := s.items[i]
	e.timer.Stop()
	s.items = slices.Delete(s.items, i, i+1)
	return e
}
