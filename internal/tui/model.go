// Package tui is the terminal front-end: the same counter, driven from the
// keyboard.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"TeaCounter/internal/catalog"
	"TeaCounter/internal/register"
	"TeaCounter/internal/view"
)

// Controller is the gesture vocabulary the terminal uses.
type Controller interface {
	Screen() register.Screen
	Increment(ctx context.Context, item string) error
	Decrement(ctx context.Context, item string) error
	ShowAdd() error
	ShowEdit(item string) error
	ShowRemove() error
	SubmitAddEdit(ctx context.Context, name, price string) error
	SubmitRemove(ctx context.Context, name string) error
	ComputeTotal() (float64, error)
	CloseTotal(ctx context.Context) error
	Cancel(ctx context.Context) error
	Dismiss(id string) bool
}

const help = "↑/↓ select • +/- qty • e edit • a add • r remove • t total • d dismiss • q quit"

type Model struct {
	ctx    context.Context
	ctl    Controller
	render *Renderer
	log    *zap.Logger

	screen register.Screen
	cursor int
	width  int

	name    textinput.Model
	price   textinput.Model
	focus   int
	receipt string

	styles Styles
}

type Styles struct {
	view.Styles
	Help lipgloss.Style
}

func NewModel(ctx context.Context, ctl Controller, r *Renderer, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	name := textinput.New()
	name.Placeholder = "Item name"
	name.CharLimit = 64
	name.Width = 30

	price := textinput.New()
	price.Placeholder = "Price"
	price.CharLimit = 16
	price.Width = 12

	return Model{
		ctx:    ctx,
		ctl:    ctl,
		render: r,
		log:    log,
		screen: ctl.Screen(),
		name:   name,
		price:  price,
		styles: Styles{
			Styles: view.DefaultStyles(),
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).MarginTop(1),
		},
	}
}

func (m Model) Init() tea.Cmd {
	return m.render.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case screenMsg:
		m.sync(register.Screen(msg))
		return m, m.render.wait()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.screen.Dialog.Mode {
		case register.ModeAddEdit, register.ModeRemove:
			return m.updateForm(msg)
		case register.ModeTotal:
			return m.updateTotal(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.screen.Entries)-1 {
			m.cursor++
		}
	case "+", "=", "right", "l":
		if item, ok := m.selected(); ok {
			m.gesture(m.ctl.Increment(m.ctx, item))
		}
	case "-", "left", "h":
		if item, ok := m.selected(); ok {
			m.gesture(m.ctl.Decrement(m.ctx, item))
		}
	case "e":
		if item, ok := m.selected(); ok {
			m.gesture(m.ctl.ShowEdit(item))
		}
	case "a":
		m.gesture(m.ctl.ShowAdd())
	case "r":
		m.gesture(m.ctl.ShowRemove())
	case "t":
		_, err := m.ctl.ComputeTotal()
		m.gesture(err)
	case "d":
		if n := m.screen.Notifications; len(n) > 0 {
			m.ctl.Dismiss(n[0].ID)
			m.sync(m.ctl.Screen())
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	adding := m.screen.Dialog.Mode == register.ModeAddEdit

	switch msg.String() {
	case "esc":
		m.gesture(m.ctl.Cancel(m.ctx))
		return m, nil
	case "tab", "shift+tab", "up", "down":
		if adding {
			m.setFocus(1 - m.focus)
		}
		return m, nil
	case "enter":
		if adding && m.focus == 0 {
			m.setFocus(1)
			return m, nil
		}
		if adding {
			m.gesture(m.ctl.SubmitAddEdit(m.ctx, m.name.Value(), m.price.Value()))
		} else {
			m.gesture(m.ctl.SubmitRemove(m.ctx, m.name.Value()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.price, cmd = m.price.Update(msg)
	}
	return m, cmd
}

func (m Model) updateTotal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "t", "q":
		m.gesture(m.ctl.CloseTotal(m.ctx))
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.render.Close()
	return m, tea.Quit
}

// gesture picks up the controller's new state after an action. The error
// has already been reported as a notification.
func (m *Model) gesture(err error) {
	if err != nil {
		m.log.Debug("gesture rejected", zap.Error(err))
	}
	m.sync(m.ctl.Screen())
}

// sync adopts s, preparing the dialog widgets when a dialog opens or closes.
func (m *Model) sync(s register.Screen) {
	prev := m.screen.Dialog
	m.screen = s

	if m.cursor >= len(s.Entries) {
		m.cursor = max(len(s.Entries)-1, 0)
	}

	if s.Dialog == prev {
		return
	}
	switch s.Dialog.Mode {
	case register.ModeAddEdit:
		if prev.Mode == register.ModeAddEdit {
			return
		}
		m.name.SetValue(s.Dialog.FormName())
		m.price.SetValue(s.Dialog.FormPrice())
		m.setFocus(0)
	case register.ModeRemove:
		if prev.Mode == register.ModeRemove {
			return
		}
		m.name.SetValue("")
		m.setFocus(0)
	case register.ModeTotal:
		m.receipt = m.buildReceipt(s)
	default:
		m.name.Blur()
		m.price.Blur()
		m.receipt = ""
	}
}

func (m *Model) setFocus(i int) {
	m.focus = i
	if i == 0 {
		m.name.Focus()
		m.price.Blur()
	} else {
		m.price.Focus()
		m.name.Blur()
	}
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.screen.Entries) {
		return "", false
	}
	return m.screen.Entries[m.cursor].Name, true
}

func (m Model) buildReceipt(s register.Screen) string {
	out, err := view.Receipt(s, s.Dialog.Total, m.width)
	if err != nil {
		m.log.Warn("render receipt failed", zap.Error(err))
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(view.Text(m.screen, m.styles.Styles, m.cursor))

	if d := m.dialog(); d != "" {
		b.WriteString(m.styles.Dialog.Render(d))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(help))
	return b.String()
}

func (m Model) dialog() string {
	d := m.screen.Dialog
	switch d.Mode {
	case register.ModeAddEdit:
		title := "Add Item"
		if d.Editing() {
			title = "Edit " + catalog.Capitalize(d.Target)
		}
		return strings.Join([]string{
			m.styles.Title.Render(title),
			"Name  " + m.name.View(),
			"Price " + m.price.View(),
			m.styles.Muted.Render("enter next/save • tab switch • esc cancel"),
		}, "\n")
	case register.ModeRemove:
		return strings.Join([]string{
			m.styles.Title.Render("Remove Item"),
			"Name  " + m.name.View(),
			m.styles.Muted.Render("enter remove • esc cancel"),
		}, "\n")
	case register.ModeTotal:
		return m.receipt + m.styles.Muted.Render("enter reset")
	default:
		return ""
	}
}

// Run drives the terminal until the user quits or ctx ends.
func Run(ctx context.Context, ctl Controller, r *Renderer, log *zap.Logger) error {
	defer r.Close()

	p := tea.NewProgram(NewModel(ctx, ctl, r, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
