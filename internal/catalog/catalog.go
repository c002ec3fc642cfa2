// Package catalog holds the stall's items: a unit price and a selected
// quantity per item name, in insertion order.
package catalog

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Entry is one catalog row as seen by renderers and persistence.
type Entry struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Catalog is not safe for concurrent use; the register serializes access.
//
// Every key in order has exactly one price and one quantity.
type Catalog struct {
	order  []string
	prices map[string]float64
	qty    map[string]int
}

func New() *Catalog {
	return &Catalog{
		prices: make(map[string]float64),
		qty:    make(map[string]int),
	}
}

// Default is the menu a fresh install starts with.
func Default() *Catalog {
	c := New()
	for _, e := range []Entry{
		{Name: "tea", Price: 20},
		{Name: "coffee", Price: 50},
		{Name: "samosa", Price: 30},
		{Name: "biscuit", Price: 10},
	} {
		c.insert(e.Name, e.Price, 0)
	}
	return c
}

// FromEntries rebuilds a catalog from stored rows. Rows are trusted to be
// normalized; later duplicates are ignored and negative quantities clamp to 0.
func FromEntries(entries []Entry) *Catalog {
	c := New()
	for _, e := range entries {
		if _, ok := c.prices[e.Name]; ok || e.Name == "" {
			continue
		}
		c.insert(e.Name, e.Price, max(e.Quantity, 0))
	}
	return c
}

func (c *Catalog) insert(name string, price float64, qty int) {
	c.order = append(c.order, name)
	c.prices[name] = price
	c.qty[name] = qty
}

func (c *Catalog) delete(name string) {
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	delete(c.prices, name)
	delete(c.qty, name)
}

func (c *Catalog) Len() int { return len(c.order) }

func (c *Catalog) Has(name string) bool {
	_, ok := c.prices[Normalize(name)]
	return ok
}

func (c *Catalog) Get(name string) (Entry, bool) {
	key := Normalize(name)
	p, ok := c.prices[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{Name: key, Price: p, Quantity: c.qty[key]}, true
}

// Entries returns a copy of every row in insertion order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, Entry{Name: n, Price: c.prices[n], Quantity: c.qty[n]})
	}
	return out
}

func (c *Catalog) Clone() *Catalog {
	return FromEntries(c.Entries())
}

// Add inserts a new item with quantity 0.
func (c *Catalog) Add(name string, price float64) (Entry, error) {
	key, err := validate(name, price)
	if err != nil {
		return Entry{}, err
	}
	if _, ok := c.prices[key]; ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateName, key)
	}

	c.insert(key, price, 0)
	return Entry{Name: key, Price: price}, nil
}

// Rename moves oldName to newName and sets its price. The quantity follows
// the item. A real rename re-inserts the key, so the item moves to the end.
func (c *Catalog) Rename(oldName, newName string, price float64) (Entry, error) {
	oldKey := Normalize(oldName)
	if _, ok := c.prices[oldKey]; !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, oldKey)
	}

	newKey, err := validate(newName, price)
	if err != nil {
		return Entry{}, err
	}

	if newKey != oldKey {
		if _, taken := c.prices[newKey]; taken {
			return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateName, newKey)
		}
		q := c.qty[oldKey]
		c.delete(oldKey)
		c.insert(newKey, 0, q)
	}

	c.prices[newKey] = price
	return Entry{Name: newKey, Price: price, Quantity: c.qty[newKey]}, nil
}

func (c *Catalog) Remove(name string) (Entry, error) {
	key := Normalize(name)
	p, ok := c.prices[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	e := Entry{Name: key, Price: p, Quantity: c.qty[key]}
	c.delete(key)
	return e, nil
}

// Adjust adds delta to the item's quantity. A result below zero is refused
// with ErrNegativeQuantity and the quantity is left as it was.
func (c *Catalog) Adjust(name string, delta int) (int, error) {
	key := Normalize(name)
	cur, ok := c.qty[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if cur+delta < 0 {
		return cur, ErrNegativeQuantity
	}
	c.qty[key] = cur + delta
	return c.qty[key], nil
}

func (c *Catalog) ResetQuantities() {
	for n := range c.qty {
		c.qty[n] = 0
	}
}

// Total is the sum of price x quantity over every item.
func (c *Catalog) Total() float64 {
	sum := decimal.Zero
	for _, n := range c.order {
		q := c.qty[n]
		if q == 0 {
			continue
		}
		line := decimal.NewFromFloat(c.prices[n]).Mul(decimal.NewFromInt(int64(q)))
		sum = sum.Add(line)
	}
	return sum.InexactFloat64()
}

func validate(name string, price float64) (string, error) {
	key := Normalize(name)
	if key == "" {
		return "", ErrInvalidName
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return key, nil
}
