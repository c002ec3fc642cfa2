package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"TeaCounter/internal/register"
)

type screenMsg register.Screen

// Renderer is the controller's renderer for the terminal. Render never
// blocks: it keeps the newest screen and wakes the program, which reads it
// on its own goroutine. Bursts of renders collapse into one redraw.
type Renderer struct {
	mu     sync.Mutex
	screen register.Screen
	ready  chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewRenderer() *Renderer {
	return &Renderer{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (r *Renderer) Render(s register.Screen) {
	r.mu.Lock()
	r.screen = s
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Close releases a pending wait.
func (r *Renderer) Close() {
	r.once.Do(func() { close(r.done) })
}

func (r *Renderer) latest() register.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

// wait delivers the next screen to the program.
func (r *Renderer) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-r.ready:
			return screenMsg(r.latest())
		case <-r.done:
			return nil
		}
	}
}
