package models

import (
	"fmt"
	"math"
)

// DefaultTaxRate is the flat sales-tax rate applied at display time.
// Tax is never transmitted to the payment gateway; orders store the subtotal.
const DefaultTaxRate = 0.08

// LineItem is a single cart entry. Identity is immutable, quantity is not.
type LineItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	UnitPrice   float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description,omitempty"`
}

// UnitAmountCents returns the unit price in minor units. Monetary values are
// converted to integer cents before any arithmetic or transmission so that
// float drift never reaches the gateway.
func (li LineItem) UnitAmountCents() int64 {
	return int64(math.Round(li.UnitPrice * 100))
}

// Cart is an insertion-ordered collection of line items keyed by item ID.
type Cart struct {
	items []LineItem
	index map[string]int
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddItem inserts a new line item or increases the quantity of an existing one.
func (c *Cart) AddItem(item LineItem) error {
	if item.ID == "" {
		return fmt.Errorf("line item missing id")
	}
	if item.Quantity < 1 {
		return fmt.Errorf("line item %s: quantity must be >= 1", item.ID)
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if pos, ok := c.index[item.ID]; ok {
		c.items[pos].Quantity += item.Quantity
		return nil
	}
	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

// SetQuantity updates the quantity of an existing line. Zero removes the line
// entirely rather than leaving a zero-quantity record.
func (c *Cart) SetQuantity(id string, quantity int64) error {
	pos, ok := c.index[id]
	if !ok {
		return fmt.Errorf("no line item with id %s", id)
	}
	if quantity < 0 {
		return fmt.Errorf("line item %s: negative quantity", id)
	}
	if quantity == 0 {
		c.items = append(c.items[:pos], c.items[pos+1:]...)
		delete(c.index, id)
		for i := pos; i < len(c.items); i++ {
			c.index[c.items[i].ID] = i
		}
		return nil
	}
	c.items[pos].Quantity = quantity
	return nil
}

// Items returns the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Clear removes all line items.
func (c *Cart) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

// SubtotalCents is the sum of unit amounts times quantities, in cents.
func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, li := range c.items {
		total += li.UnitAmountCents() * li.Quantity
	}
	return total
}

// TaxCents applies the flat tax rate to the subtotal, rounded to the cent.
func (c *Cart) TaxCents(rate float64) int64 {
	return int64(math.Round(float64(c.SubtotalCents()) * rate))
}

// TotalCents is subtotal plus tax at the given rate.
func (c *Cart) TotalCents(rate float64) int64 {
	return c.SubtotalCents() + c.TaxCents(rate)
}

// GatewayLineItems converts the cart into the gateway's line-item shape.
func (c *Cart) GatewayLineItems() []GatewayLineItem {
	out := make([]GatewayLineItem, 0, len(c.items))
	for _, li := range c.items {
		desc := li.Description
		if desc == "" {
			desc = li.Title + " - Premium quality tech product"
		}
		var images []string
		if li.ImageURL != "" {
			images = []string{li.ImageURL}
		}
		out = append(out, GatewayLineItem{
			PriceData: GatewayPriceData{
				Currency: "usd",
				ProductData: GatewayProductData{
					Name:        li.Title,
					Description: desc,
					Images:      images,
				},
				UnitAmount: li.UnitAmountCents(),
			},
			Quantity: li.Quantity,
		})
	}
	return out
}

// GatewayProductData describes the product inside a gateway line item.
type GatewayProductData struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// GatewayPriceData carries the price in integer minor units.
type GatewayPriceData struct {
	Currency    string             `json:"currency"`
	ProductData GatewayProductData `json:"product_data"`
	UnitAmount  int64              `json:"unit_amount"`
}

// GatewayLineItem is the wire shape accepted by the checkout endpoint and
// handed to the payment gateway.
type GatewayLineItem struct {
	PriceData GatewayPriceData `json:"price_data"`
	Quantity  int64            `json:"quantity"`
}

// CartFromGatewayItems rebuilds a cart from wire-format line items. Used at
// the HTTP boundary, where the client ships the gateway shape directly.
func CartFromGatewayItems(items []GatewayLineItem) (*Cart, error) {
	cart := NewCart()
	for i, it := range items {
		if it.PriceData.UnitAmount <= 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("invalid item format at index %d", i)
		}
		var image string
		if len(it.PriceData.ProductData.Images) > 0 {
			image = it.PriceData.ProductData.Images[0]
		}
		li := LineItem{
			ID:          fmt.Sprintf("li_%d", i),
			Title:       it.PriceData.ProductData.Name,
			UnitPrice:   float64(it.PriceData.UnitAmount) / 100,
			Quantity:    it.Quantity,
			ImageURL:    image,
			Description: it.PriceData.ProductData.Description,
		}
		if err := cart.AddItem(li); err != nil {
			return nil, err
		}
	}
	return cart, nil
}
