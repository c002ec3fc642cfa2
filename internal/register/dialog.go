package register

import (
	"encoding/json"
	"strconv"
)

// Mode is the modal dialog currently on screen. At most one is open.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAddEdit
	ModeRemove
	ModeTotal
)

func (m Mode) String() string {
	switch m {
	case ModeAddEdit:
		return "add_edit"
	case ModeRemove:
		return "remove"
	case ModeTotal:
		return "total"
	default:
		return "idle"
	}
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Dialog is the open dialog and what it was opened for.
type Dialog struct {
	Mode Mode `json:"mode"`
	// Target is the item being edited; empty when the add/edit dialog adds.
	Target string `json:"target,omitempty"`
	// Price pre-fills the edit form.
	Price float64 `json:"price,omitempty"`
	// Total is set while the total dialog is open.
	Total float64 `json:"total,omitempty"`
	// Draft is the last submission the dialog rejected.
	Draft *Draft `json:"draft,omitempty"`
}

// Draft is form input as the user typed it.
type Draft struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
}

func (d Dialog) Open() bool    { return d.Mode != ModeIdle }
func (d Dialog) Editing() bool { return d.Mode == ModeAddEdit && d.Target != "" }

// FormName is what the dialog's name field shows: a rejected draft, else the
// item being edited.
func (d Dialog) FormName() string {
	if d.Draft != nil {
		return d.Draft.Name
	}
	return d.Target
}

func (d Dialog) FormPrice() string {
	switch {
	case d.Draft != nil:
		return d.Draft.Price
	case d.Editing():
		return strconv.FormatFloat(d.Price, 'f', -1, 64)
	default:
		return ""
	}
}
