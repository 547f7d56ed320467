package domain

import (
	"time"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
)

// Item is one product line; Quantity is always >= 1.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the server-side cart of one authenticated customer. It is created
// lazily and only ever emptied, never deleted.
type Cart struct {
	CustomerID string
	Items      []Item
	UpdatedAt  time.Time
}

// AnonymousCart is the client-held cart of a guest. MergeToken identifies
// this particular guest cart so that consolidating it twice is a no-op.
type AnonymousCart struct {
	MergeToken string `json:"merge_token"`
	Items      []Item `json:"items"`
}

func New(customerID string) Cart {
	return Cart{CustomerID: customerID}
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add increases the quantity of productID, creating the line if needed.
func (c *Cart) Add(productID string, quantity int) error {
	if productID == "" {
		return apperr.InvalidArgument("product id is required")
	}
	if quantity <= 0 {
		return apperr.InvalidArgument("quantity must be positive")
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return nil
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	return nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity of
// zero or below removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.index(productID)
	if i < 0 {
		return apperr.NotFound("product %s is not in the cart", productID)
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	}
	c.Items[i].Quantity = quantity
	return nil
}

func (c *Cart) Remove(productID string) error {
	return c.SetQuantity(productID, 0)
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Merge folds the anonymous items into c, adding quantities for products
// already present.
func (c *Cart) Merge(from AnonymousCart) error {
	for _, it := range Normalize(from.Items) {
		if err := c.Add(it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (c Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Normalize sums duplicate product lines, keeping first-seen order.
func Normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := pos[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
