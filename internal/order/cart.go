// Package order holds the cart and invoice arithmetic. It performs no I/O apart
// from asking a Sequencer for the next invoice number.
package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the product snapshot a cart line is built from.
type Item struct {
	ID       uuid.UUID
	Name     string
	Category string
	Price    decimal.Decimal
}

// Line is one product in the working cart. Name and price are captured when
// the product is first added and do not follow later catalog edits.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product and never a line with quantity < 1.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Add increments the line for item.ID or appends a new line with quantity 1.
func (c *Cart) Add(item Item) {
	if i := c.index(item.ID); i >= 0 {
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, Line{
		ProductID: item.ID,
		Name:      item.Name,
		Category:  item.Category,
		UnitPrice: item.Price,
		Quantity:  1,
	})
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line. Unknown products are ignored.
func (c *Cart) UpdateQuantity(productID uuid.UUID, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.index(productID); i >= 0 {
		c.Lines[i].Quantity = qty
	}
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID uuid.UUID) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Quantity returns the quantity held for productID, zero when absent.
func (c Cart) Quantity(productID uuid.UUID) int {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// ItemCount sums quantities across lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of every line total; zero for an empty cart.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

func (c Cart) index(productID uuid.UUID) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
