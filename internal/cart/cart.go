// Package cart models the shopper's cart as the browser stores it and applies
// the advisory stock rules used before checkout. Prices in a cart are for
// display only; checkout re-resolves them server-side.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

var (
	ErrOutOfStock    = errors.New("out of stock")
	ErrUnknownOption = errors.New("option is no longer available")
	ErrInvalidLine   = errors.New("invalid cart line")
)

// Line is one cart entry. OptionID references a decant; lines without it
// carry no inventory tracking.
type Line struct {
	OptionID    *uuid.UUID `json:"option_id,omitempty"`
	FragranceID *uuid.UUID `json:"fragrance_id,omitempty"`
	Name        string     `json:"name"`
	Label       string     `json:"label,omitempty"`
	Quantity    int64      `json:"quantity"`
	UnitAmount  int64      `json:"unit_amount"`
	Currency    string     `json:"currency"`
	ImageURL    string     `json:"image_url,omitempty"`
}

// StockLevel is the live inventory of an option. A nil Quantity means
// unlimited.
type StockLevel struct {
	Quantity *int64
	InStock  bool
}

func (s StockLevel) Unlimited() bool {
	return s.Quantity == nil
}

// Stock maps option ids to their live inventory.
type Stock map[uuid.UUID]StockLevel

type Problem struct {
	Index     int        `json:"index"`
	OptionID  *uuid.UUID `json:"option_id,omitempty"`
	Name      string     `json:"name"`
	Requested int64      `json:"requested"`
	Allowed   int64      `json:"allowed"`
	Reason    string     `json:"reason"`
}

type Cart struct {
	Lines []Line `json:"items"`
}

// Load decodes a cart saved by Save or by the storefront's local storage.
// Both the wrapped {"items": [...]} form and a bare array are accepted.
func Load(r io.Reader) (*Cart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	c := &Cart{}
	if len(data) == 0 {
		return c, nil
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &c.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode cart: %w", err)
		}
		return c, nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return c, nil
}

func (c *Cart) Save(w io.Writer) error {
	lines := c.Lines
	if lines == nil {
		lines = []Line{}
	}
	if err := json.NewEncoder(w).Encode(Cart{Lines: lines}); err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return nil
}

// Clamp returns the quantity that fits within remaining stock after
// allocated units are accounted for: min(requested, max(0, remaining-allocated)).
func Clamp(requested, remaining, allocated int64) int64 {
	available := remaining - allocated
	if available < 0 {
		available = 0
	}
	if requested < available {
		return requested
	}
	return available
}

// allocated sums the quantity of every line for option except the one at skip.
func (c *Cart) allocated(option uuid.UUID, skip int) int64 {
	var n int64
	for i, l := range c.Lines {
		if i == skip || l.OptionID == nil || *l.OptionID != option {
			continue
		}
		n += l.Quantity
	}
	return n
}

// effective resolves how many units of line may be held when the other
// lines (all but skip) are already allocated.
func (c *Cart) effective(line Line, requested int64, skip int, stock Stock) (int64, error) {
	if line.OptionID == nil {
		return requested, nil
	}
	level, ok := stock[*line.OptionID]
	if !ok {
		return 0, ErrUnknownOption
	}
	if !level.InStock {
		return 0, ErrOutOfStock
	}
	if level.Unlimited() {
		return requested, nil
	}
	return Clamp(requested, *level.Quantity, c.allocated(*line.OptionID, skip)), nil
}

// Add puts line into the cart, merging with an existing line for the same
// option. It returns the quantity actually added.
func (c *Cart) Add(line Line, stock Stock) (int64, error) {
	if line.Quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidLine)
	}

	added, err := c.effective(line, line.Quantity, -1, stock)
	if err != nil {
		return 0, err
	}
	if added == 0 {
		return 0, ErrOutOfStock
	}

	if line.OptionID != nil {
		for i := range c.Lines {
			if c.Lines[i].OptionID != nil && *c.Lines[i].OptionID == *line.OptionID {
				c.Lines[i].Quantity += added
				return added, nil
			}
		}
	}

	line.Quantity = added
	c.Lines = append(c.Lines, line)
	return added, nil
}

// SetQuantity changes the quantity at index, clamped to stock. Zero or a
// fully clamped quantity removes the line.
func (c *Cart) SetQuantity(index int, quantity int64, stock Stock) (int64, error) {
	if index < 0 || index >= len(c.Lines) {
		return 0, fmt.Errorf("%w: index %d out of range", ErrInvalidLine, index)
	}
	if quantity <= 0 {
		c.Remove(index)
		return 0, nil
	}

	q, err := c.effective(c.Lines[index], quantity, index, stock)
	if err != nil {
		return 0, err
	}
	if q == 0 {
		c.Remove(index)
		return 0, nil
	}
	c.Lines[index].Quantity = q
	return q, nil
}

func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.Lines) {
		return
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.UnitAmount * l.Quantity
	}
	return total
}

// Count is the number of units across every line.
func (c *Cart) Count() int64 {
	var n int64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Validate reports every line that cannot be checked out as-is. Lines for
// the same option share its remaining stock in cart order.
func (c *Cart) Validate(stock Stock) []Problem {
	var problems []Problem
	used := map[uuid.UUID]int64{}

	for i, l := range c.Lines {
		if l.Quantity <= 0 {
			problems = append(problems, Problem{Index: i, OptionID: l.OptionID, Name: l.Name, Requested: l.Quantity, Reason: "quantity must be positive"})
			continue
		}
		if l.OptionID == nil {
			continue
		}

		level, ok := stock[*l.OptionID]
		switch {
		case !ok:
			problems = append(problems, Problem{Index: i, OptionID: l.OptionID, Name: l.Name, Requested: l.Quantity, Reason: ErrUnknownOption.Error()})
		case !level.InStock:
			problems = append(problems, Problem{Index: i, OptionID: l.OptionID, Name: l.Name, Requested: l.Quantity, Reason: ErrOutOfStock.Error()})
		case level.Unlimited():
		default:
			allowed := Clamp(l.Quantity, *level.Quantity, used[*l.OptionID])
			used[*l.OptionID] += allowed
			if allowed < l.Quantity {
				reason := ErrOutOfStock.Error()
				if left := *level.Quantity; left > 0 {
					reason = fmt.Sprintf("only %d left", left)
				}
				problems = append(problems, Problem{Index: i, OptionID: l.OptionID, Name: l.Name, Requested: l.Quantity, Allowed: allowed, Reason: reason})
			}
		}
	}
	return problems
}

// Clamped returns a copy with every line reduced to what stock allows.
// Lines that end up empty are dropped.
func (c *Cart) Clamped(stock Stock) *Cart {
	out := &Cart{}
	for _, l := range c.Lines {
		if l.Quantity <= 0 {
			continue
		}
		q, err := out.effective(l, l.Quantity, -1, stock)
		if err != nil || q == 0 {
			continue
		}
		l.Quantity = q
		out.Lines = append(out.Lines, l)
	}
	return out
}

// OptionIDs lists the distinct options referenced by the cart.
func (c *Cart) OptionIDs() []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, l := range c.Lines {
		if l.OptionID == nil || seen[*l.OptionID] {
			continue
		}
		seen[*l.OptionID] = true
		ids = append(ids, *l.OptionID)
	}
	return ids
}
