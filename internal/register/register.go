// Package register is the counter's controller. It turns user gestures into
// catalog mutations, then saves, re-renders and reports the outcome, in that
// order.
package register

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"TeaCounter/internal/catalog"
	"TeaCounter/internal/notify"
)

// Screen is everything a renderer needs to draw the counter.
type Screen struct {
	Entries       []catalog.Entry       `json:"items"`
	Dialog        Dialog                `json:"dialog"`
	Notifications []notify.Notification `json:"notifications"`
}

type Renderer interface {
	Render(Screen)
}

type Persister interface {
	Save(ctx context.Context, c *catalog.Catalog) error
}

type Notifier interface {
	Notify(message string, sev notify.Severity) string
	Dismiss(id string) bool
	Active() []notify.Notification
}

type Deps struct {
	Store    Persister
	Renderer Renderer
	Notifier Notifier
	Log      *zap.Logger
	Registry prometheus.Registerer
}

// Controller owns the catalog. Gestures are serialized; the front-ends may
// call from any goroutine.
type Controller struct {
	mu     sync.Mutex
	cat    *catalog.Catalog
	dialog Dialog

	store   Persister
	render  Renderer
	notes   Notifier
	log     *zap.Logger
	metrics *Metrics
}

// errNoop marks a gesture that was accepted but changed nothing, like
// decrementing an item already at zero.
var errNoop = errors.New("no change")

type note struct {
	msg string
	sev notify.Severity
}

func New(c *catalog.Catalog, deps Deps) *Controller {
	if c == nil {
		c = catalog.Default()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	ctl := &Controller{
		cat:     c,
		store:   deps.Store,
		render:  deps.Renderer,
		notes:   deps.Notifier,
		log:     deps.Log,
		metrics: NewMetrics(deps.Registry),
	}
	ctl.Refresh()
	return ctl
}

// Screen returns the current state without rendering it.
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen()
}

// Refresh re-renders the current state. Notification changes call it.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draw()
}

func (c *Controller) Increment(ctx context.Context, item string) error {
	return c.adjust(ctx, "increment", item, 1)
}

func (c *Controller) Decrement(ctx context.Context, item string) error {
	return c.adjust(ctx, "decrement", item, -1)
}

func (c *Controller) adjust(ctx context.Context, action, item string, delta int) error {
	return c.do(action, func() (note, error) {
		if c.dialog.Open() {
			return note{}, ErrDialogOpen
		}

		_, err := c.cat.Adjust(item, delta)
		if errors.Is(err, catalog.ErrNegativeQuantity) {
			return note{}, errNoop
		}
		if err != nil {
			return note{}, err
		}

		c.commit(ctx)
		return note{}, nil
	})
}

func (c *Controller) ShowAdd() error {
	return c.do("show_add", func() (note, error) {
		return note{}, c.open(Dialog{Mode: ModeAddEdit})
	})
}

func (c *Controller) ShowEdit(item string) error {
	return c.do("show_edit", func() (note, error) {
		e, ok := c.cat.Get(item)
		if !ok {
			return note{}, catalog.ErrNotFound
		}
		return note{}, c.open(Dialog{Mode: ModeAddEdit, Target: e.Name, Price: e.Price})
	})
}

func (c *Controller) ShowRemove() error {
	return c.do("show_remove", func() (note, error) {
		return note{}, c.open(Dialog{Mode: ModeRemove})
	})
}

// SubmitAddEdit adds a new item, or renames/reprices the item the dialog
// was opened for. On a validation failure the dialog stays open.
func (c *Controller) SubmitAddEdit(ctx context.Context, name, price string) error {
	return c.do("submit_add_edit", func() (note, error) {
		if c.dialog.Mode != ModeAddEdit {
			return note{}, ErrNoDialog
		}
		c.dialog.Draft = &Draft{Name: name, Price: price}

		p, err := parsePrice(price)
		if catalog.Normalize(name) == "" {
			err = catalog.ErrInvalidName
		}
		if err != nil {
			if c.dialog.Editing() {
				return note{msg: "Invalid name or price", sev: notify.Error}, err
			}
			return note{}, err
		}

		var (
			e    catalog.Entry
			verb string
		)
		if c.dialog.Editing() {
			e, err = c.cat.Rename(c.dialog.Target, name, p)
			verb = "updated"
		} else {
			e, err = c.cat.Add(name, p)
			verb = "added"
		}
		if err != nil {
			return note{}, err
		}

		c.dialog = Dialog{}
		c.commit(ctx)
		return note{msg: catalog.Capitalize(e.Name) + " " + verb + " successfully", sev: notify.Success}, nil
	})
}

func (c *Controller) SubmitRemove(ctx context.Context, name string) error {
	return c.do("submit_remove", func() (note, error) {
		if c.dialog.Mode != ModeRemove {
			return note{}, ErrNoDialog
		}
		c.dialog.Draft = &Draft{Name: name}
		if catalog.Normalize(name) == "" {
			return note{}, catalog.ErrNotFound
		}

		e, err := c.cat.Remove(name)
		if err != nil {
			return note{}, err
		}

		c.dialog = Dialog{}
		c.commit(ctx)
		return note{msg: catalog.Capitalize(e.Name) + " removed successfully", sev: notify.Success}, nil
	})
}

// ComputeTotal opens the total dialog. The total is fixed when opened.
func (c *Controller) ComputeTotal() (float64, error) {
	var total float64
	err := c.do("compute_total", func() (note, error) {
		if err := c.open(Dialog{Mode: ModeTotal, Total: c.cat.Total()}); err != nil {
			return note{}, err
		}
		total = c.dialog.Total
		c.metrics.OrderTotal.Observe(total)
		return note{}, nil
	})
	return total, err
}

// CloseTotal closes the total dialog. Closing finishes the order: every
// quantity goes back to zero.
func (c *Controller) CloseTotal(ctx context.Context) error {
	return c.do("close_total", func() (note, error) {
		if c.dialog.Mode != ModeTotal {
			return note{}, ErrNoDialog
		}
		return c.finishOrder(ctx), nil
	})
}

// Cancel closes whatever dialog is open, discarding unsubmitted input. The
// total dialog has a single exit, so cancelling it also finishes the order.
func (c *Controller) Cancel(ctx context.Context) error {
	return c.do("cancel", func() (note, error) {
		switch c.dialog.Mode {
		case ModeIdle:
			return note{}, nil
		case ModeTotal:
			return c.finishOrder(ctx), nil
		default:
			c.dialog = Dialog{}
			c.draw()
			return note{}, nil
		}
	})
}

func (c *Controller) Dismiss(id string) bool {
	if c.notes == nil {
		return false
	}
	return c.notes.Dismiss(id)
}

func (c *Controller) finishOrder(ctx context.Context) note {
	c.dialog = Dialog{}
	c.cat.ResetQuantities()
	c.commit(ctx)
	return note{msg: "Quantities have been reset", sev: notify.Success}
}

// do runs fn under the lock, then posts the outcome. A rejected gesture
// reports fn's note if it set one, else the error's message. Notifying
// happens after unlocking because the notifier calls back into Refresh.
func (c *Controller) do(action string, fn func() (note, error)) error {
	c.mu.Lock()
	n, err := fn()
	c.mu.Unlock()

	switch {
	case errors.Is(err, errNoop):
		c.metrics.action(action, outcomeNoop)
		return nil
	case err != nil:
		c.metrics.action(action, outcomeRejected)
		if msg := userMessage(err); msg != "" && n.msg == "" {
			n = note{msg: msg, sev: notify.Error}
		}
		c.log.Debug("action rejected", zap.String("action", action), zap.Error(err))
	default:
		c.metrics.action(action, outcomeOK)
	}

	if n.msg != "" && c.notes != nil {
		c.notes.Notify(n.msg, n.sev)
	}
	return err
}

func (c *Controller) open(d Dialog) error {
	if c.dialog.Open() {
		return ErrDialogOpen
	}
	c.dialog = d
	c.draw()
	return nil
}

// commit persists and redraws after a mutation. A failed save is reported
// and otherwise ignored: the in-memory state stays authoritative.
func (c *Controller) commit(ctx context.Context) {
	if c.store != nil {
		if err := c.store.Save(ctx, c.cat); err != nil {
			c.metrics.PersistFailures.Inc()
			c.log.Warn("persist catalog failed", zap.Error(err))
		}
	}
	c.draw()
}

func (c *Controller) draw() {
	if c.render != nil {
		c.render.Render(c.screen())
	}
}

func (c *Controller) screen() Screen {
	s := Screen{
		Entries: c.cat.Entries(),
		Dialog:  c.dialog,
	}
	if c.notes != nil {
		s.Notifications = c.notes.Active()
	}
	return s
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, catalog.ErrInvalidPrice
	}
	return p, nil
}
