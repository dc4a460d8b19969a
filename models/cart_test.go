package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byjojo/store-backend/models"
)

func buildCart(t *testing.T, items ...models.LineItem) *models.Cart {
	t.Helper()
	cart := models.NewCart()
	for _, it := range items {
		if err := cart.AddItem(it); err != nil {
			t.Fatalf("AddItem(%s): %v", it.ID, err)
		}
	}
	return cart
}

func TestCartTotals(t *testing.T) {
	cart := buildCart(t,
		models.LineItem{ID: "p1", Title: "Headphones", UnitPrice: 29.99, Quantity: 2},
		models.LineItem{ID: "p2", Title: "Cable", UnitPrice: 10.00, Quantity: 1},
	)

	assert.Equal(t, int64(6998), cart.SubtotalCents())
	assert.Equal(t, int64(560), cart.TaxCents(models.DefaultTaxRate))
	assert.Equal(t, int64(7558), cart.TotalCents(models.DefaultTaxRate))
}

func TestUnitAmountCentsRounds(t *testing.T) {
	li := models.LineItem{ID: "p1", UnitPrice: 19.999, Quantity: 1}
	assert.Equal(t, int64(2000), li.UnitAmountCents())

	li = models.LineItem{ID: "p2", UnitPrice: 0.1 + 0.2, Quantity: 1} // 0.30000000000000004
	assert.Equal(t, int64(30), li.UnitAmountCents())
}

func TestAddItemMergesQuantity(t *testing.T) {
	cart := buildCart(t, models.LineItem{ID: "p1", UnitPrice: 5, Quantity: 1})
	assert.NoError(t, cart.AddItem(models.LineItem{ID: "p1", UnitPrice: 5, Quantity: 2}))

	assert.Equal(t, 1, cart.Len())
	assert.Equal(t, int64(3), cart.Items()[0].Quantity)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	cart := models.NewCart()
	assert.Error(t, cart.AddItem(models.LineItem{ID: "p1", UnitPrice: 5, Quantity: 0}))
	assert.True(t, cart.IsEmpty())
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	cart := buildCart(t,
		models.LineItem{ID: "p1", UnitPrice: 5, Quantity: 1},
		models.LineItem{ID: "p2", UnitPrice: 7, Quantity: 1},
	)

	assert.NoError(t, cart.SetQuantity("p1", 0))
	assert.Equal(t, 1, cart.Len())
	assert.Equal(t, "p2", cart.Items()[0].ID)

	// index stays consistent after removal
	assert.NoError(t, cart.SetQuantity("p2", 4))
	assert.Equal(t, int64(4), cart.Items()[0].Quantity)
}

func TestGatewayLineItems(t *testing.T) {
	cart := buildCart(t,
		models.LineItem{ID: "p1", Title: "Headphones", UnitPrice: 29.99, Quantity: 2, ImageURL: "https://img.example/p1.png", Description: "Noise cancelling"},
		models.LineItem{ID: "p2", Title: "Cable", UnitPrice: 10.00, Quantity: 1},
	)

	items := cart.GatewayLineItems()
	assert.Len(t, items, 2)

	assert.Equal(t, "usd", items[0].PriceData.Currency)
	assert.Equal(t, "Headphones", items[0].PriceData.ProductData.Name)
	assert.Equal(t, "Noise cancelling", items[0].PriceData.ProductData.Description)
	assert.Equal(t, []string{"https://img.example/p1.png"}, items[0].PriceData.ProductData.Images)
	assert.Equal(t, int64(2999), items[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), items[0].Quantity)

	// missing description falls back to the canned one
	assert.Equal(t, "Cable - Premium quality tech product", items[1].PriceData.ProductData.Description)
	assert.Equal(t, int64(1000), items[1].PriceData.UnitAmount)
}

func TestCartFromGatewayItemsRoundTrip(t *testing.T) {
	original := buildCart(t,
		models.LineItem{ID: "p1", Title: "Headphones", UnitPrice: 29.99, Quantity: 2},
		models.LineItem{ID: "p2", Title: "Cable", UnitPrice: 10.00, Quantity: 1},
	)

	rebuilt, err := models.CartFromGatewayItems(original.GatewayLineItems())
	assert.NoError(t, err)
	assert.Equal(t, original.SubtotalCents(), rebuilt.SubtotalCents())
}

func TestCartFromGatewayItemsRejectsInvalid(t *testing.T) {
	_, err := models.CartFromGatewayItems([]models.GatewayLineItem{
		{PriceData: models.GatewayPriceData{UnitAmount: 0}, Quantity: 1},
	})
	assert.Error(t, err)

	_, err = models.CartFromGatewayItems([]models.GatewayLineItem{
		{PriceData: models.GatewayPriceData{UnitAmount: 100}, Quantity: 0},
	})
	assert.Error(t, err)
}
