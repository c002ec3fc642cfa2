package register

import (
	"errors"

	"TeaCounter/internal/catalog"
)

var (
	ErrDialogOpen = errors.New("another dialog is open")
	ErrNoDialog   = errors.New("dialog is not open")
)

// Validation failures re-exported so front-ends depend on one package.
var (
	ErrInvalidName   = catalog.ErrInvalidName
	ErrInvalidPrice  = catalog.ErrInvalidPrice
	ErrDuplicateName = catalog.ErrDuplicateName
	ErrNotFound      = catalog.ErrNotFound
)

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidName):
		return "Item name is required"
	case errors.Is(err, ErrInvalidPrice):
		return "Invalid item or price"
	case errors.Is(err, ErrDuplicateName):
		return "An item with this name already exists"
	case errors.Is(err, ErrNotFound):
		return "Item not found"
	default:
		return ""
	}
}
