package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"TeaCounter/internal/catalog"
	"TeaCounter/internal/notify"
	"TeaCounter/internal/register"
)

var (
	green = lipgloss.Color("#2e7d32")
	red   = lipgloss.Color("#c62828")
	amber = lipgloss.Color("#f9a825")
	muted = lipgloss.Color("#808080")
)

// Styles are the lipgloss styles of the terminal screen.
type Styles struct {
	Title    lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Quantity lipgloss.Style
	Muted    lipgloss.Style
	Dialog   lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Fading   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(amber).
			Bold(true).
			MarginBottom(1),
		Row: lipgloss.NewStyle().
			PaddingLeft(2),
		Selected: lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(amber).
			Bold(true),
		Quantity: lipgloss.NewStyle().
			Bold(true).
			Width(4).
			Align(lipgloss.Right),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Dialog: lipgloss.NewStyle().
			Padding(1, 2).
			MarginTop(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber),
		Success: lipgloss.NewStyle().
			Foreground(green).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(red).
			Bold(true),
		Fading: lipgloss.NewStyle().
			Foreground(muted).
			Faint(true),
	}
}

// Text renders the item list and notification stack. selected is the row
// under the cursor, -1 for none. Dialog bodies are drawn by the caller,
// which owns the input widgets.
func Text(s register.Screen, st Styles, selected int) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Tea Counter"))
	b.WriteString("\n")

	if len(s.Entries) == 0 {
		b.WriteString(st.Muted.Render("  No items yet. Press a to add one."))
		b.WriteString("\n")
	}

	width := nameWidth(s.Entries)
	for i, e := range s.Entries {
		line := fmt.Sprintf("%-*s %8s %s",
			width, catalog.Capitalize(e.Name),
			FormatPrice(e.Price),
			st.Quantity.Render(fmt.Sprint(e.Quantity)),
		)
		if i == selected {
			b.WriteString(st.Selected.Render(line))
		} else {
			b.WriteString(st.Row.Render(line))
		}
		b.WriteString("\n")
	}

	if len(s.Notifications) > 0 {
		b.WriteString("\n")
		for _, n := range s.Notifications {
			b.WriteString(notification(n, st))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func notification(n notify.Notification, st Styles) string {
	switch {
	case n.Fading:
		return st.Fading.Render(n.Message)
	case n.Severity == notify.Error:
		return st.Error.Render("✗ " + n.Message)
	default:
		return st.Success.Render("✓ " + n.Message)
	}
}

func nameWidth(entries []catalog.Entry) int {
	w := 8
	for _, e := range entries {
		w = max(w, lipgloss.Width(e.Name))
	}
	return w
}

// ReceiptMarkdown lists the ordered items and the total as a markdown
// table. Items with a zero quantity are left out.
func ReceiptMarkdown(s register.Screen, total float64) string {
	var b strings.Builder
	b.WriteString("## Order\n\n")
	b.WriteString("| Item | Qty | Price | Amount |\n")
	b.WriteString("|:-----|----:|------:|-------:|\n")
	for _, e := range s.Entries {
		if e.Quantity == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n",
			catalog.Capitalize(e.Name), e.Quantity,
			FormatPrice(e.Price), FormatPrice(e.Price*float64(e.Quantity)))
	}
	fmt.Fprintf(&b, "\n**Total: %s**\n", FormatPrice(total))
	return b.String()
}

// Receipt renders ReceiptMarkdown for the terminal with glamour. On a
// renderer failure the plain markdown is returned with the error.
func Receipt(s register.Screen, total float64, width int) (string, error) {
	md := ReceiptMarkdown(s, total)
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md, err
	}
	out, err := r.Render(md)
	if err != nil {
		return md, err
	}
	return out, nil
}
