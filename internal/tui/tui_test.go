package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TeaCounter/internal/catalog"
	"TeaCounter/internal/notify"
	"TeaCounter/internal/register"
)

func newModel(t *testing.T) (Model, *register.Controller) {
	t.Helper()

	notes := notify.New(notify.Options{Display: time.Minute})
	t.Cleanup(notes.Close)

	r := NewRenderer()
	t.Cleanup(r.Close)
	ctl := register.New(catalog.Default(), register.Deps{Renderer: r, Notifier: notes})
	notes.SetOnChange(ctl.Refresh)

	return NewModel(context.Background(), ctl, r, nil), ctl
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func TestRenderer_CoalescesAndNeverBlocks(t *testing.T) {
	r := NewRenderer()
	defer r.Close()

	for i := 0; i < 10; i++ {
		r.Render(register.Screen{Entries: []catalog.Entry{{Name: "tea", Quantity: i}}})
	}

	msg := r.wait()()
	s, ok := msg.(screenMsg)
	require.True(t, ok)
	assert.Equal(t, 9, s.Entries[0].Quantity)
}

func TestRenderer_CloseReleasesWait(t *testing.T) {
	r := NewRenderer()
	done := make(chan tea.Msg)
	go func() { done <- r.wait()() }()

	r.Close()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after Close")
	}
}

func TestCountersFollowCursor(t *testing.T) {
	m, ctl := newModel(t)

	m = press(t, m, runes("+"), runes("+"), tea.KeyMsg{Type: tea.KeyDown}, runes("+"), runes("-"), runes("-"))

	s := ctl.Screen()
	assert.Equal(t, 2, s.Entries[0].Quantity)
	assert.Equal(t, 0, s.Entries[1].Quantity)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), "Coffee")
}

func TestAddDialog(t *testing.T) {
	m, ctl := newModel(t)

	m = press(t, m, runes("a"))
	require.Equal(t, register.ModeAddEdit, m.screen.Dialog.Mode)
	assert.Contains(t, m.View(), "Add Item")

	m = typeText(t, m, "Chai")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "15")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, register.ModeIdle, m.screen.Dialog.Mode)
	e, ok := catalog.FromEntries(ctl.Screen().Entries).Get("chai")
	require.True(t, ok)
	assert.Equal(t, 15.0, e.Price)
	assert.Contains(t, m.View(), "Chai added successfully")
}

func TestEditDialog_PrefillsAndKeepsInputOnError(t *testing.T) {
	m, _ := newModel(t)

	m = press(t, m, runes("e"))
	assert.Equal(t, "tea", m.name.Value())
	assert.Equal(t, "20", m.price.Value())

	m.name.SetValue("coffee")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, register.ModeAddEdit, m.screen.Dialog.Mode)
	assert.Equal(t, "coffee", m.name.Value(), "input survives a rejected submit")
	assert.Contains(t, m.View(), "An item with this name already exists")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, register.ModeIdle, m.screen.Dialog.Mode)
}

func TestRemoveDialog(t *testing.T) {
	m, ctl := newModel(t)

	m = press(t, m, runes("r"))
	m = typeText(t, m, "chai")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, register.ModeRemove, m.screen.Dialog.Mode)
	assert.Equal(t, "chai", m.name.Value(), "input survives a rejected remove")
	assert.Contains(t, m.View(), "Item not found")

	m.name.SetValue("")
	m = typeText(t, m, "samosa")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, catalog.FromEntries(ctl.Screen().Entries).Has("samosa"))
	assert.Equal(t, register.ModeIdle, m.screen.Dialog.Mode)
}

func TestTotalDialog(t *testing.T) {
	m, ctl := newModel(t)

	m = press(t, m, runes("+"), runes("+"), runes("+"), tea.KeyMsg{Type: tea.KeyDown}, runes("+"), runes("+"))
	m = press(t, m, runes("t"))

	require.Equal(t, register.ModeTotal, m.screen.Dialog.Mode)
	assert.Equal(t, 160.0, m.screen.Dialog.Total)
	assert.Contains(t, m.View(), "160")

	m = press(t, m, runes("+"))
	assert.Equal(t, 3, ctl.Screen().Entries[0].Quantity, "list keys are inert while the total is shown")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, register.ModeIdle, m.screen.Dialog.Mode)
	for _, e := range ctl.Screen().Entries {
		assert.Zero(t, e.Quantity)
	}
}

func TestDismissAndQuit(t *testing.T) {
	m, _ := newModel(t)

	m = press(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Len(t, m.screen.Notifications, 1)

	m = press(t, m, runes("d"))
	assert.Empty(t, m.screen.Notifications)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
