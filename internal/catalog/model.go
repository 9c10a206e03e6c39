package catalog

// Product is the sellable product a variant belongs to.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	IsGiftcard  bool    `json:"is_giftcard"`
}

// Variant is a specific sellable configuration of a product.
type Variant struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	SKU       *string `json:"sku,omitempty"`
}

// Region is a pricing and currency zone.
type Region struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currency_code"`
}

// AddOn is an optional extra restricted to the products listed in ValidFor.
type AddOn struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ValidFor []string `json:"valid_for"`
}

// IsValidFor reports whether the add-on may be attached to productID.
func (a AddOn) IsValidFor(productID string) bool {
	for _, id := range a.ValidFor {
		if id == productID {
			return true
		}
	}
	return false
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	VariantID string
}
